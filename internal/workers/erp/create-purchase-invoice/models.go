// internal/workers/erp/create-purchase-invoice/models.go
package createpurchaseinvoice

import "paperless-workers/internal/workers"

type Input = workers.DocumentInput

type Output struct {
	InvoiceID  int64  `json:"invoiceId"`
	Supplier   string `json:"supplier"`
	BillNo     string `json:"billNo"`
	BillDate   string `json:"billDate"`
	GrandTotal string `json:"grandTotal"`
	Created    bool   `json:"created"`
	Status     string `json:"status"`
}
