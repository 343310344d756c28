// internal/workers/workers.go

// Package workers holds the pieces every job handler shares: variable
// parsing and the mapping of store and client errors onto job error codes.
package workers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/llm"
	"paperless-workers/internal/common/paperless"
	"paperless-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

const DefaultTimeout = 30 * time.Second

// DocumentInput is the variable set of the per-document tasks.
type DocumentInput struct {
	DocumentID int64 `json:"documentId"`
}

// ParseVariables decodes the job variables into out.
func ParseVariables(job entities.Job, out interface{}) error {
	if err := json.Unmarshal([]byte(job.Variables), out); err != nil {
		return apperrors.NewInputParsingError(err)
	}
	return nil
}

// ParseDocumentInput decodes and checks a DocumentInput.
func ParseDocumentInput(job entities.Job) (*DocumentInput, error) {
	var in DocumentInput
	if err := ParseVariables(job, &in); err != nil {
		return nil, err
	}
	if in.DocumentID <= 0 {
		return nil, apperrors.NewInputValidationError("documentId must be a positive integer")
	}
	return &in, nil
}

// StoreError maps a repository error for documentID.
func StoreError(op string, documentID int64, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewDocumentNotFoundError(documentID)
	case errors.Is(err, repository.ErrInsertFailed):
		return apperrors.NewDatabaseInsertError(fmt.Errorf("%s: %w", op, err))
	default:
		return apperrors.NewDatabaseQueryError(op, err)
	}
}

func PaperlessError(endpoint string, err error) error {
	if errors.Is(err, paperless.ErrNotFound) {
		return apperrors.NewPaperlessNotFoundError(endpoint)
	}
	return apperrors.NewPaperlessRequestError(endpoint, err)
}

func LLMError(err error) error {
	if errors.Is(err, llm.ErrTimeout) {
		return apperrors.NewLLMTimeoutError()
	}
	return apperrors.NewLLMRequestError(err)
}

// Timeout returns the configured job timeout or DefaultTimeout.
func Timeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
