// internal/workers/paperless/sync-correspondents/config.go
package synccorrespondents

import "time"

type Config struct {
	Timeout time.Duration
}
