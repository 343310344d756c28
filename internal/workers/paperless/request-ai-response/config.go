// internal/workers/paperless/request-ai-response/config.go
package requestairesponse

import "time"

type Config struct {
	Timeout time.Duration
}
