// internal/workers/paperless/extract-invoice-date/models.go
package extractinvoicedate

import (
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/workers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

type Input struct {
	DocumentID int64 `json:"documentId"`
	// Overwrite replaces a stored date for this job even when the worker
	// is configured to keep it.
	Overwrite bool `json:"overwrite"`
}

type Output struct {
	Found       bool   `json:"found"`
	InvoiceDate string `json:"invoiceDate,omitempty"`
	Anchor      string `json:"anchor,omitempty"`
}

func parseInput(job entities.Job) (*Input, error) {
	var in Input
	if err := workers.ParseVariables(job, &in); err != nil {
		return nil, err
	}
	if in.DocumentID <= 0 {
		return nil, apperrors.NewInputValidationError("documentId must be a positive integer")
	}
	return &in, nil
}
