// internal/backfill/runner.go

// Package backfill fills in missing invoice dates on stored documents.
package backfill

import (
	"context"
	"strings"
	"time"

	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/metrics"
	"paperless-workers/internal/common/search"
	"paperless-workers/internal/dateextract"
	"paperless-workers/internal/repository"

	"github.com/google/uuid"
)

// DefaultPageSize is the number of documents read per query.
const DefaultPageSize = 200

type Store interface {
	ListWithoutInvoiceDate(ctx context.Context, afterID int64, limit int) ([]repository.DocumentText, error)
	SetInvoiceDate(ctx context.Context, id int64, date time.Time) error
}

// Options control a run. Limit caps the number of documents scanned, zero
// meaning all. AfterID resumes behind the LastID of an earlier run.
type Options struct {
	Limit    int
	AfterID  int64
	PageSize int
	DryRun   bool
}

type Summary struct {
	RunID   string `json:"runId"`
	Scanned int    `json:"scanned"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	LastID  int64  `json:"lastId"`
	DryRun  bool   `json:"dryRun"`
}

type Runner struct {
	store     Store
	extractor *dateextract.Extractor
	indexer   search.Indexer
	logger    logger.Logger
}

// NewRunner builds a Runner. A nil indexer disables search updates.
func NewRunner(store Store, extractor *dateextract.Extractor, indexer search.Indexer, log logger.Logger) *Runner {
	if indexer == nil {
		indexer = search.NoopIndexer{}
	}
	return &Runner{store: store, extractor: extractor, indexer: indexer, logger: log}
}

// Run extracts and stores an invoice date for every document that lacks
// one. Documents are read in id order behind a cursor, so documents without
// a recognisable date are passed over instead of being read again.
// Failures on single documents are counted and do not stop the run. Only
// listing the documents can fail the run as a whole.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), DryRun: opts.DryRun, LastID: opts.AfterID}
	log := r.logger.WithFields(map[string]interface{}{"runId": sum.RunID})

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	log.Info("backfill started", map[string]interface{}{
		"afterId": opts.AfterID,
		"limit":   opts.Limit,
		"dryRun":  opts.DryRun,
	})

	for {
		if err := ctx.Err(); err != nil {
			log.Warn("backfill interrupted", map[string]interface{}{"scanned": sum.Scanned})
			break
		}
		n := pageSize
		if opts.Limit > 0 {
			remaining := opts.Limit - sum.Scanned
			if remaining <= 0 {
				break
			}
			if remaining < n {
				n = remaining
			}
		}

		page, err := r.store.ListWithoutInvoiceDate(ctx, sum.LastID, n)
		if err != nil {
			return nil, err
		}
		if !r.processPage(ctx, log, page, opts, sum) || len(page) < n {
			break
		}
	}

	log.Info("backfill finished", map[string]interface{}{
		"scanned": sum.Scanned,
		"updated": sum.Updated,
		"skipped": sum.Skipped,
		"failed":  sum.Failed,
		"lastId":  sum.LastID,
	})
	return sum, nil
}

// processPage returns false when the run was interrupted.
func (r *Runner) processPage(ctx context.Context, log logger.Logger, page []repository.DocumentText, opts Options, sum *Summary) bool {
	for _, doc := range page {
		if err := ctx.Err(); err != nil {
			log.Warn("backfill interrupted", map[string]interface{}{"scanned": sum.Scanned})
			return false
		}
		sum.Scanned++
		sum.LastID = doc.ID
		r.process(ctx, log, doc, opts, sum)
	}
	return true
}

func (r *Runner) process(ctx context.Context, log logger.Logger, doc repository.DocumentText, opts Options, sum *Summary) {
	if strings.TrimSpace(doc.Fulltext) == "" {
		sum.Skipped++
		metrics.BackfillDocuments.WithLabelValues("skipped").Inc()
		return
	}

	m, ok := r.extractor.Extract(doc.Fulltext)
	metrics.RecordExtraction(ok)
	if !ok {
		sum.Skipped++
		metrics.BackfillDocuments.WithLabelValues("skipped").Inc()
		log.Debug("no invoice date found", map[string]interface{}{"documentId": doc.ID})
		return
	}

	fields := map[string]interface{}{
		"documentId":  doc.ID,
		"invoiceDate": m.ISO(),
		"anchor":      m.Anchor,
	}
	if opts.DryRun {
		sum.Updated++
		log.Info("would set invoice date", fields)
		return
	}

	if err := r.store.SetInvoiceDate(ctx, doc.ID, m.Date); err != nil {
		sum.Failed++
		metrics.BackfillDocuments.WithLabelValues("failed").Inc()
		log.Error("failed to set invoice date", map[string]interface{}{
			"documentId": doc.ID,
			"error":      err.Error(),
		})
		return
	}
	sum.Updated++
	metrics.BackfillDocuments.WithLabelValues("updated").Inc()
	log.Info("invoice date set", fields)

	if err := r.indexer.SetInvoiceDate(ctx, doc.PaperlessDocumentID, m.Date); err != nil {
		log.Warn("failed to update search index", map[string]interface{}{
			"documentId": doc.ID,
			"error":      err.Error(),
		})
	}
}
