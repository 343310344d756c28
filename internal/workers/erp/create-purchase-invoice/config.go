// internal/workers/erp/create-purchase-invoice/config.go
package createpurchaseinvoice

import "time"

type Config struct {
	Timeout time.Duration
}
