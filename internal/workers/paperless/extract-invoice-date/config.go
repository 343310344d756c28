// internal/workers/paperless/extract-invoice-date/config.go
package extractinvoicedate

import "time"

type Config struct {
	Timeout time.Duration
	// Overwrite replaces a date that is already stored.
	Overwrite bool
}
