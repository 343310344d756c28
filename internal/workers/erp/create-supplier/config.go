// internal/workers/erp/create-supplier/config.go
package createsupplier

import "time"

type Config struct {
	Timeout time.Duration
}
