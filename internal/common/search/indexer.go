// internal/common/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// IndexedDocument is the search view of a synced Paperless document.
type IndexedDocument struct {
	PaperlessDocumentID int64  `json:"paperlessDocumentId"`
	Title               string `json:"title"`
	Correspondent       string `json:"correspondent,omitempty"`
	DocumentType        string `json:"documentType,omitempty"`
	ERPDoctype          string `json:"erpDoctype,omitempty"`
	Status              string `json:"status"`
	Fulltext            string `json:"fulltext"`
	InvoiceDate         string `json:"invoiceDate,omitempty"`
}

type Indexer interface {
	IndexDocument(ctx context.Context, doc IndexedDocument) error
	SetInvoiceDate(ctx context.Context, paperlessDocumentID int64, date time.Time) error
}

type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

func (i *ESIndexer) IndexDocument(ctx context.Context, doc IndexedDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(strconv.FormatInt(doc.PaperlessDocumentID, 10)),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index document %d: %w", doc.PaperlessDocumentID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index document %d: %s", doc.PaperlessDocumentID, readError(res.Body, res.Status()))
	}
	return nil
}

func (i *ESIndexer) SetInvoiceDate(ctx context.Context, paperlessDocumentID int64, date time.Time) error {
	body, err := json.Marshal(map[string]interface{}{
		"doc": map[string]string{"invoiceDate": date.Format("2006-01-02")},
	})
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	res, err := i.client.Update(
		i.index,
		strconv.FormatInt(paperlessDocumentID, 10),
		bytes.NewReader(body),
		i.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("update document %d: %w", paperlessDocumentID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("update document %d: %s", paperlessDocumentID, readError(res.Body, res.Status()))
	}
	return nil
}

func readError(body io.Reader, status string) string {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	if len(b) == 0 {
		return status
	}
	return status + ": " + string(b)
}

// NoopIndexer is used when the search index is disabled.
type NoopIndexer struct{}

func (NoopIndexer) IndexDocument(context.Context, IndexedDocument) error { return nil }

func (NoopIndexer) SetInvoiceDate(context.Context, int64, time.Time) error { return nil }
