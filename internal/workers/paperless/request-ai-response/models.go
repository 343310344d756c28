// internal/workers/paperless/request-ai-response/models.go
package requestairesponse

import "paperless-workers/internal/workers"

type Input = workers.DocumentInput

type Output struct {
	Status    string `json:"status"`
	Prompt    string `json:"prompt"`
	ValidJSON bool   `json:"validJson"`
}
