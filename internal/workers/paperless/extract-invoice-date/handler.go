// internal/workers/paperless/extract-invoice-date/handler.go
package extractinvoicedate

import (
	"context"
	"time"

	"paperless-workers/internal/common/camunda"
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/metrics"
	"paperless-workers/internal/common/search"
	"paperless-workers/internal/dateextract"
	"paperless-workers/internal/repository"
	"paperless-workers/internal/workers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "paperless-extract-invoice-date"
)

type Store interface {
	GetDocument(ctx context.Context, id int64) (*repository.Document, error)
	SetInvoiceDate(ctx context.Context, id int64, date time.Time) error
}

type Handler struct {
	config     *Config
	store      Store
	extractor  *dateextract.Extractor
	indexer    search.Indexer
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store Store, extractor *dateextract.Extractor, indexer search.Indexer, log logger.Logger) *Handler {
	if indexer == nil {
		indexer = search.NoopIndexer{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		extractor:  extractor,
		indexer:    indexer,
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

	input, err := parseInput(job)
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

// Execute reads the stored fulltext and persists the invoice date found in
// it. Not finding a date is a normal outcome.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	doc, err := h.store.GetDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, workers.StoreError("get document", input.DocumentID, err)
	}

	if doc.InvoiceDate != nil && !h.config.Overwrite && !input.Overwrite {
		return &Output{Found: true, InvoiceDate: doc.InvoiceDate.Format("2006-01-02")}, nil
	}

	m, found := h.extractor.Extract(doc.Fulltext)
	metrics.RecordExtraction(found)
	if !found {
		h.logger.Info("no invoice date found", map[string]interface{}{"documentId": doc.ID})
		return &Output{}, nil
	}

	if err := h.store.SetInvoiceDate(ctx, doc.ID, m.Date); err != nil {
		return nil, workers.StoreError("set invoice date", doc.ID, err)
	}
	if err := h.indexer.SetInvoiceDate(ctx, doc.PaperlessDocumentID, m.Date); err != nil {
		h.logger.Warn("failed to update search index", map[string]interface{}{
			"documentId": doc.ID,
			"error":      err.Error(),
		})
	}

	h.logger.Info("invoice date extracted", map[string]interface{}{
		"documentId":  doc.ID,
		"invoiceDate": m.ISO(),
		"pattern":     m.Pattern,
	})
	return &Output{Found: true, InvoiceDate: m.ISO(), Anchor: m.Anchor}, nil
}
