// internal/workers/erp/create-purchase-invoice/handler.go
package createpurchaseinvoice

import (
	"context"
	"errors"

	"paperless-workers/internal/common/aws"
	"paperless-workers/internal/common/camunda"
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/validation"
	"paperless-workers/internal/erp"
	"paperless-workers/internal/repository"
	"paperless-workers/internal/workers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "erp-create-purchase-invoice"
)

type DocumentReader interface {
	GetDocument(ctx context.Context, id int64) (*repository.Document, error)
}

type Handler struct {
	config     *Config
	documents  DocumentReader
	invoices   *erp.InvoiceService
	reviews    aws.ReviewNotifier
	events     aws.EventPublisher
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, documents DocumentReader, invoices *erp.InvoiceService, reviews aws.ReviewNotifier, events aws.EventPublisher, log logger.Logger) *Handler {
	if reviews == nil {
		reviews = aws.NoopNotifier{}
	}
	if events == nil {
		events = aws.NoopPublisher{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		documents:  documents,
		invoices:   invoices,
		reviews:    reviews,
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

// Execute books the document's AI answer as a purchase invoice. Answers
// lacking mandatory fields raise INVOICE_VALIDATION_FAILED and are sent
// to the reviewers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	doc, err := h.documents.GetDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, workers.StoreError("get document", input.DocumentID, err)
	}

	details, err := h.parse(doc)
	if err != nil {
		return nil, err
	}

	res, err := h.invoices.Create(ctx, doc.ID, details)
	var missing *erp.MissingFieldsError
	if errors.As(err, &missing) {
		h.requestReview(ctx, doc, missing.Fields)
		return nil, apperrors.NewInvoiceValidationError(missing.Fields)
	}
	if err != nil {
		return nil, workers.StoreError("create purchase invoice", doc.ID, err)
	}

	if res.Created {
		event := aws.NewEvent(aws.EventInvoiceCreated, doc.ID, map[string]interface{}{
			"invoiceId":  res.InvoiceID,
			"supplier":   res.Supplier,
			"billNo":     res.BillNo,
			"grandTotal": res.GrandTotal.StringFixed(2),
		})
		if err := h.events.Publish(ctx, event); err != nil {
			h.logger.Warn("failed to publish event", map[string]interface{}{
				"documentId": doc.ID,
				"eventType":  event.Type,
				"error":      err.Error(),
			})
		}
	}

	h.logger.Info("purchase invoice booked", map[string]interface{}{
		"documentId": doc.ID,
		"invoice":    res.Summary(),
		"created":    res.Created,
	})
	return &Output{
		InvoiceID:  res.InvoiceID,
		Supplier:   res.Supplier,
		BillNo:     res.BillNo,
		BillDate:   res.BillDate.Format("2006-01-02"),
		GrandTotal: res.GrandTotal.StringFixed(2),
		Created:    res.Created,
		Status:     repository.StatusInvoiceCreated,
	}, nil
}

func (h *Handler) parse(doc *repository.Document) (*erp.InvoiceDetails, error) {
	if doc.AIResponseJSON == nil {
		return nil, apperrors.NewInvalidAIResponseError("document has no AI response")
	}
	raw := *doc.AIResponseJSON

	result, err := validation.ValidateInvoiceDetails(raw)
	if err != nil {
		return nil, apperrors.NewInvalidAIResponseError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidAIResponseError(result.Error())
	}

	details, err := erp.ParseInvoiceDetails(raw)
	if err != nil {
		return nil, apperrors.NewInvalidAIResponseError(err.Error())
	}
	return details, nil
}

func (h *Handler) requestReview(ctx context.Context, doc *repository.Document, fields []string) {
	err := h.reviews.NotifyReview(ctx, aws.ReviewRequest{
		DocumentID:          doc.ID,
		PaperlessDocumentID: doc.PaperlessDocumentID,
		Title:               doc.Title,
		MissingFields:       fields,
	})
	if err != nil {
		h.logger.Warn("failed to send review request", map[string]interface{}{
			"documentId": doc.ID,
			"error":      err.Error(),
		})
	}
}
