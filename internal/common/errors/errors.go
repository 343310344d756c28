// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInputValidation    ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodePaperlessRequestFailed ErrorCode = "PAPERLESS_REQUEST_FAILED"
	ErrCodePaperlessNotFound      ErrorCode = "PAPERLESS_NOT_FOUND"

	ErrCodeLLMRequestFailed ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"

	ErrCodeDatabaseQueryFailed  ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeDocumentNotFound ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodePromptNotFound   ErrorCode = "PROMPT_NOT_FOUND"

	ErrCodeInvalidAIResponse       ErrorCode = "INVALID_AI_RESPONSE"
	ErrCodeInvoiceValidationFailed ErrorCode = "INVOICE_VALIDATION_FAILED"

	ErrCodeEventPublishFailed ErrorCode = "EVENT_PUBLISH_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err to a *StandardError if there is one in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidation, "Job input validation failed", details, false)
}

func NewPaperlessRequestError(endpoint string, err error) *StandardError {
	return newError(ErrCodePaperlessRequestFailed, "Paperless request failed",
		fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()), true)
}

func NewPaperlessNotFoundError(endpoint string) *StandardError {
	return newError(ErrCodePaperlessNotFound, "Paperless resource not found",
		fmt.Sprintf("endpoint: %s", endpoint), false)
}

func NewLLMRequestError(err error) *StandardError {
	return newError(ErrCodeLLMRequestFailed, "LLM request failed", err.Error(), true)
}

func NewLLMTimeoutError() *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM request timeout", "completion call exceeded its deadline", true)
}

func NewDatabaseQueryError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, "Database query failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewDatabaseInsertError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewDocumentNotFoundError(documentID int64) *StandardError {
	return newError(ErrCodeDocumentNotFound, "Paperless document not found",
		fmt.Sprintf("documentId: %d", documentID), false)
}

func NewPromptNotFoundError(details string) *StandardError {
	return newError(ErrCodePromptNotFound, "AI prompt not found", details, false)
}

func NewInvalidAIResponseError(details string) *StandardError {
	return newError(ErrCodeInvalidAIResponse, "AI response is not valid invoice JSON", details, false)
}

// NewInvoiceValidationError is terminal: the document needs manual review.
func NewInvoiceValidationError(missing []string) *StandardError {
	return newError(ErrCodeInvoiceValidationFailed, "Missing mandatory invoice fields",
		strings.Join(missing, ", "), false).WithMetadata("missingFields", missing)
}

func NewEventPublishError(err error) *StandardError {
	return newError(ErrCodeEventPublishFailed, "Event publish failed", err.Error(), true)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Unmapped
// codes are passed through unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputParsingFailed:      "INPUT_PARSING_FAILED",
	ErrCodeInputValidation:         "INPUT_VALIDATION_FAILED",
	ErrCodePaperlessRequestFailed:  "PAPERLESS_REQUEST_FAILED",
	ErrCodePaperlessNotFound:       "PAPERLESS_NOT_FOUND",
	ErrCodeLLMRequestFailed:        "LLM_REQUEST_FAILED",
	ErrCodeLLMTimeout:              "LLM_TIMEOUT",
	ErrCodeDatabaseQueryFailed:     "DATABASE_QUERY_FAILED",
	ErrCodeDatabaseInsertFailed:    "DATABASE_INSERT_FAILED",
	ErrCodeDocumentNotFound:        "DOCUMENT_NOT_FOUND",
	ErrCodePromptNotFound:          "PROMPT_NOT_FOUND",
	ErrCodeInvalidAIResponse:       "INVALID_AI_RESPONSE",
	ErrCodeInvoiceValidationFailed: "INVOICE_VALIDATION_FAILED",
	ErrCodeEventPublishFailed:      "EVENT_PUBLISH_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePaperlessRequestFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeEventPublishFailed,
		"EXTERNAL_SERVICE_ERROR":
		return 3

	case ErrCodeLLMRequestFailed,
		"TIMEOUT_ERROR":
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging and dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PAPERLESS"):
		return "PAPERLESS"
	case strings.HasPrefix(codeStr, "LLM") || strings.Contains(codeStr, "AI_RESPONSE"):
		return "AI"
	case strings.HasPrefix(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVOICE"):
		return "ERP"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
