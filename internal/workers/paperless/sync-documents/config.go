// internal/workers/paperless/sync-documents/config.go
package syncdocuments

import "time"

type Config struct {
	Timeout time.Duration
}
