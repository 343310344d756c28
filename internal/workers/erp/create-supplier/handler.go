// internal/workers/erp/create-supplier/handler.go
package createsupplier

import (
	"context"
	"errors"

	"paperless-workers/internal/common/camunda"
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/erp"
	"paperless-workers/internal/repository"
	"paperless-workers/internal/workers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "erp-create-supplier"

	MsgInvalidJSON = "Invalid JSON format"
)

type DocumentReader interface {
	GetDocument(ctx context.Context, id int64) (*repository.Document, error)
}

type Handler struct {
	config     *Config
	documents  DocumentReader
	suppliers  *erp.SupplierService
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, documents DocumentReader, suppliers *erp.SupplierService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		documents:  documents,
		suppliers:  suppliers,
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

// Execute creates or updates the supplier named in the document's AI
// answer. An answer that is not JSON completes with MsgInvalidJSON.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	doc, err := h.documents.GetDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, workers.StoreError("get document", input.DocumentID, err)
	}

	if doc.AIResponseJSON == nil {
		return &Output{Message: MsgInvalidJSON}, nil
	}
	details, err := erp.ParseInvoiceDetails(*doc.AIResponseJSON)
	if err != nil {
		h.logger.Warn("ai response is not valid JSON", map[string]interface{}{
			"documentId": doc.ID,
			"error":      err.Error(),
		})
		return &Output{Message: MsgInvalidJSON}, nil
	}

	res, err := h.suppliers.Upsert(ctx, details)
	if errors.Is(err, erp.ErrMissingSupplierName) {
		return nil, apperrors.NewInputValidationError("AI response has no SupplierName")
	}
	if err != nil {
		return nil, workers.StoreError("upsert supplier", doc.ID, err)
	}

	return &Output{
		Message:    res.Message,
		Supplier:   res.Supplier.Name,
		SupplierID: res.Supplier.ID,
		Created:    res.Created,
		ContactID:  res.ContactID,
		AddressID:  res.AddressID,
	}, nil
}
