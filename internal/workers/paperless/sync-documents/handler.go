// internal/workers/paperless/sync-documents/handler.go
package syncdocuments

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"paperless-workers/internal/common/camunda"
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/metrics"
	"paperless-workers/internal/common/paperless"
	"paperless-workers/internal/common/search"
	"paperless-workers/internal/dateextract"
	"paperless-workers/internal/repository"
	"paperless-workers/internal/workers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "paperless-sync-documents"
)

type PaperlessAPI interface {
	ListDocumentIDs(ctx context.Context) ([]int64, error)
	GetDocument(ctx context.Context, id int64) (*paperless.Document, error)
	GetThumbnail(ctx context.Context, id int64) ([]byte, string, error)
}

type NameLookup interface {
	CorrespondentName(ctx context.Context, id *int64) (string, error)
	DocumentTypeName(ctx context.Context, id *int64) (string, error)
}

type Store interface {
	ListPaperlessIDs(ctx context.Context) ([]int64, error)
	FindERPDoctype(ctx context.Context, paperlessType string) (string, error)
	FindPromptForDoctype(ctx context.Context, doctype string) (string, error)
	InsertDocument(ctx context.Context, d *repository.Document) (int64, error)
	SaveThumbnail(ctx context.Context, documentID int64, thumb repository.Thumbnail) error
}

type Handler struct {
	config     *Config
	paperless  PaperlessAPI
	names      NameLookup
	store      Store
	extractor  *dateextract.Extractor
	indexer    search.Indexer
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, api PaperlessAPI, names NameLookup, store Store, extractor *dateextract.Extractor, indexer search.Indexer, log logger.Logger) *Handler {
	if indexer == nil {
		indexer = search.NoopIndexer{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		paperless:  api,
		names:      names,
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

	var input Input
	err := workers.ParseVariables(job, &input)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, &input)
	}
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}
	return camunda.CompleteJob(ctx, client, job, output)
}

// Execute adds every Paperless document that is not stored yet. Single
// documents that fail are counted and the sync goes on.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	missing, err := h.missingIDs(ctx, input)
	if err != nil {
		return nil, err
	}

	out := &Output{DocumentIDs: []int64{}}
	for _, pid := range missing {
		id, err := h.addDocument(ctx, pid)
		switch {
		case errors.Is(err, paperless.ErrNotFound):
			out.Skipped++
			h.logger.Warn("paperless document vanished", map[string]interface{}{"paperlessDocumentId": pid})
		case err != nil:
			out.Failed++
			h.logger.Error("failed to add document", map[string]interface{}{
				"paperlessDocumentId": pid,
				"error":               err.Error(),
			})
		default:
			out.Added++
			out.DocumentIDs = append(out.DocumentIDs, id)
		}
	}

	h.logger.Info("document sync finished", map[string]interface{}{
		"added":   out.Added,
		"failed":  out.Failed,
		"skipped": out.Skipped,
	})
	return out, nil
}

func (h *Handler) missingIDs(ctx context.Context, input *Input) ([]int64, error) {
	var remote []int64
	if input.PaperlessDocumentID != nil {
		remote = []int64{*input.PaperlessDocumentID}
	} else {
		ids, err := h.paperless.ListDocumentIDs(ctx)
		if err != nil {
			return nil, workers.PaperlessError("documents", err)
		}
		remote = ids
	}

	local, err := h.store.ListPaperlessIDs(ctx)
	if err != nil {
		return nil, workers.StoreError("list paperless ids", 0, err)
	}
	known := make(map[int64]bool, len(local))
	for _, id := range local {
		known[id] = true
	}

	var missing []int64
	for _, id := range remote {
		if !known[id] {
			known[id] = true
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

func (h *Handler) addDocument(ctx context.Context, pid int64) (int64, error) {
	doc, err := h.paperless.GetDocument(ctx, pid)
	if err != nil {
		return 0, err
	}

	typeName, err := h.names.DocumentTypeName(ctx, doc.DocumentType)
	if err != nil {
		return 0, fmt.Errorf("document type: %w", err)
	}
	correspondent, err := h.names.CorrespondentName(ctx, doc.Correspondent)
	if err != nil {
		return 0, fmt.Errorf("correspondent: %w", err)
	}

	var doctype, prompt string
	if typeName != "" {
		if doctype, err = h.store.FindERPDoctype(ctx, typeName); err != nil {
			return 0, err
		}
	}
	if doctype != "" {
		if prompt, err = h.store.FindPromptForDoctype(ctx, doctype); err != nil {
			return 0, err
		}
	}

	var invoiceDate string
	m, found := h.extractor.Extract(doc.Content)
	metrics.RecordExtraction(found)

	rec := &repository.Document{
		PaperlessDocumentID:    pid,
		Title:                  doc.Title,
		PaperlessCorrespondent: optional(correspondent),
		PaperlessDocumentType:  optional(typeName),
		ERPDoctype:             optional(doctype),
		AIPrompt:               optional(prompt),
		Status:                 repository.StatusNew,
		Fulltext:               doc.Content,
	}
	if found {
		rec.InvoiceDate = &m.Date
		invoiceDate = m.ISO()
	}
	id, err := h.store.InsertDocument(ctx, rec)
	if err != nil {
		return 0, err
	}
	log := h.logger.WithFields(map[string]interface{}{"documentId": id, "paperlessDocumentId": pid})
	log.Info("document added", map[string]interface{}{"title": doc.Title})

	h.saveThumbnail(ctx, log, id, pid)

	if err := h.indexer.IndexDocument(ctx, search.IndexedDocument{
		PaperlessDocumentID: pid,
		Title:               doc.Title,
		Correspondent:       correspondent,
		DocumentType:        typeName,
		ERPDoctype:          doctype,
		Status:              repository.StatusNew,
		Fulltext:            doc.Content,
		InvoiceDate:         invoiceDate,
	}); err != nil {
		log.Warn("failed to index document", map[string]interface{}{"error": err.Error()})
	}
	return id, nil
}

// saveThumbnail stores the preview image. A missing thumbnail does not
// fail the document.
func (h *Handler) saveThumbnail(ctx context.Context, log logger.Logger, id, pid int64) {
	data, contentType, err := h.paperless.GetThumbnail(ctx, pid)
	if err != nil {
		log.Warn("failed to fetch thumbnail", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(data) == 0 {
		return
	}
	thumb := repository.Thumbnail{
		FileName:    fmt.Sprintf("docthumb-%d.webp", pid),
		ContentType: contentType,
		Data:        data,
	}
	if err := h.store.SaveThumbnail(ctx, id, thumb); err != nil {
		log.Warn("failed to save thumbnail", map[string]interface{}{"error": err.Error()})
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
