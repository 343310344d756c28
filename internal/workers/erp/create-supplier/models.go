// internal/workers/erp/create-supplier/models.go
package createsupplier

import "paperless-workers/internal/workers"

type Input = workers.DocumentInput

type Output struct {
	Message    string `json:"message"`
	Supplier   string `json:"supplier,omitempty"`
	SupplierID int64  `json:"supplierId,omitempty"`
	Created    bool   `json:"created"`
	ContactID  *int64 `json:"contactId,omitempty"`
	AddressID  *int64 `json:"addressId,omitempty"`
}
