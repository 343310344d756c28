// internal/workers/paperless/request-ai-response/handler.go
package requestairesponse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"paperless-workers/internal/common/aws"
	"paperless-workers/internal/common/camunda"
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/llm"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/repository"
	"paperless-workers/internal/workers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "paperless-request-ai-response"
)

type Store interface {
	GetDocument(ctx context.Context, id int64) (*repository.Document, error)
	FindPromptForDoctype(ctx context.Context, doctype string) (string, error)
	GetPrompt(ctx context.Context, name string) (*repository.Prompt, error)
	UpdateAIResponse(ctx context.Context, id int64, raw, aiJSON, status string) error
}

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FulltextSource supplies the OCR text when none is stored.
type FulltextSource interface {
	GetFulltext(ctx context.Context, id int64) (string, error)
}

type Handler struct {
	config     *Config
	store      Store
	llm        Completer
	fulltext   FulltextSource
	events     aws.EventPublisher
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store Store, completer Completer, fulltext FulltextSource, events aws.EventPublisher, log logger.Logger) *Handler {
	if events == nil {
		events = aws.NoopPublisher{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		llm:        completer,
		fulltext:   fulltext,
		events:     events,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), workers.Timeout(h.config.Timeout))
	defer cancel()

	input, err := workers.ParseDocumentInput(job)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, input)
	}
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}
	return camunda.CompleteJob(ctx, client, job, output)
}

// Execute asks the model about the document and stores both the raw answer
// and the JSON found in it. An answer without usable JSON is stored with
// an explanation in place of the JSON and is not an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	doc, err := h.store.GetDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, workers.StoreError("get document", input.DocumentID, err)
	}

	prompt, err := h.resolvePrompt(ctx, doc)
	if err != nil {
		return nil, err
	}

	text, err := h.documentText(ctx, doc)
	if err != nil {
		return nil, err
	}

	resp, err := h.llm.Complete(ctx, BuildPrompt(text, prompt.Text))
	if err != nil {
		return nil, workers.LLMError(err)
	}

	aiJSON, ok := llm.ExtractJSON(resp)
	if err := h.store.UpdateAIResponse(ctx, doc.ID, resp, aiJSON, repository.StatusAIResponseReceived); err != nil {
		return nil, workers.StoreError("update ai response", doc.ID, err)
	}

	event := aws.NewEvent(aws.EventAIResponseReceived, doc.ID, map[string]interface{}{
		"paperlessDocumentId": doc.PaperlessDocumentID,
		"prompt":              prompt.Name,
		"validJson":           ok,
	})
	if err := h.events.Publish(ctx, event); err != nil {
		h.logger.Warn("failed to publish event", map[string]interface{}{
			"documentId": doc.ID,
			"eventType":  event.Type,
			"error":      err.Error(),
		})
	}

	h.logger.Info("ai response stored", map[string]interface{}{
		"documentId": doc.ID,
		"prompt":     prompt.Name,
		"validJson":  ok,
	})
	return &Output{Status: repository.StatusAIResponseReceived, Prompt: prompt.Name, ValidJSON: ok}, nil
}

// BuildPrompt puts the document text before the instructions.
func BuildPrompt(fulltext, instructions string) string {
	return fulltext + "\n\n" + instructions
}

// resolvePrompt uses the prompt stored on the document, falling back to the
// prompt configured for its ERP doctype.
func (h *Handler) resolvePrompt(ctx context.Context, doc *repository.Document) (*repository.Prompt, error) {
	var name string
	if doc.AIPrompt != nil {
		name = *doc.AIPrompt
	}
	if name == "" && doc.ERPDoctype != nil {
		found, err := h.store.FindPromptForDoctype(ctx, *doc.ERPDoctype)
		if err != nil {
			return nil, workers.StoreError("find prompt", doc.ID, err)
		}
		name = found
	}
	if name == "" {
		return nil, apperrors.NewPromptNotFoundError(fmt.Sprintf("no prompt for document %d", doc.ID))
	}

	p, err := h.store.GetPrompt(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewPromptNotFoundError(name)
	}
	if err != nil {
		return nil, workers.StoreError("get prompt", doc.ID, err)
	}
	return p, nil
}

func (h *Handler) documentText(ctx context.Context, doc *repository.Document) (string, error) {
	if strings.TrimSpace(doc.Fulltext) != "" || h.fulltext == nil {
		return doc.Fulltext, nil
	}
	text, err := h.fulltext.GetFulltext(ctx, doc.PaperlessDocumentID)
	if err != nil {
		return "", workers.PaperlessError("documents", err)
	}
	return text, nil
}
