// internal/repository/documents.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const documentColumns = `
	id, paperless_document_id, title, paperless_correspondent, paperless_document_type,
	erp_doctype, ai_prompt, status, fulltext, ai_response, ai_response_json,
	invoice_date, created_at, updated_at`

// ListPaperlessIDs returns the Paperless ids already stored locally.
func (r *Repository) ListPaperlessIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT paperless_document_id FROM paperless_documents`)
	if err != nil {
		return nil, fmt.Errorf("%w: list paperless ids: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan paperless id: %v", ErrQueryFailed, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list paperless ids: %v", ErrQueryFailed, err)
	}
	return ids, nil
}

func (r *Repository) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var (
		d                                                    Document
		correspondent, docType, doctype, prompt, raw, aiJSON sql.NullString
		invoiceDate                                          sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `SELECT`+documentColumns+` FROM paperless_documents WHERE id = $1`, id).Scan(
		&d.ID, &d.PaperlessDocumentID, &d.Title, &correspondent, &docType,
		&doctype, &prompt, &d.Status, &d.Fulltext, &raw, &aiJSON,
		&invoiceDate, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get document %d: %v", ErrQueryFailed, id, err)
	}

	d.PaperlessCorrespondent = stringPtr(correspondent)
	d.PaperlessDocumentType = stringPtr(docType)
	d.ERPDoctype = stringPtr(doctype)
	d.AIPrompt = stringPtr(prompt)
	d.AIResponse = stringPtr(raw)
	d.AIResponseJSON = stringPtr(aiJSON)
	d.InvoiceDate = timePtr(invoiceDate)
	return &d, nil
}

// InsertDocument stores a newly synced document and returns its id.
func (r *Repository) InsertDocument(ctx context.Context, d *Document) (int64, error) {
	status := d.Status
	if status == "" {
		status = StatusNew
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO paperless_documents (
			paperless_document_id, title, paperless_correspondent, paperless_document_type,
			erp_doctype, ai_prompt, status, fulltext, invoice_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		d.PaperlessDocumentID,
		d.Title,
		nullString(d.PaperlessCorrespondent),
		nullString(d.PaperlessDocumentType),
		nullString(d.ERPDoctype),
		nullString(d.AIPrompt),
		status,
		d.Fulltext,
		nullTime(d.InvoiceDate),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: insert document %d: %v", ErrInsertFailed, d.PaperlessDocumentID, err)
	}
	return id, nil
}

func (r *Repository) SaveThumbnail(ctx context.Context, documentID int64, thumb Thumbnail) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO document_thumbnails (document_id, file_name, content_type, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id) DO UPDATE
		SET file_name = EXCLUDED.file_name, content_type = EXCLUDED.content_type, data = EXCLUDED.data`,
		documentID, thumb.FileName, thumb.ContentType, thumb.Data,
	)
	if err != nil {
		return fmt.Errorf("%w: save thumbnail for document %d: %v", ErrInsertFailed, documentID, err)
	}
	return nil
}

func (r *Repository) UpdateAIResponse(ctx context.Context, id int64, raw, aiJSON, status string) error {
	return r.updateOne(ctx, "update ai response", id, `
		UPDATE paperless_documents
		SET ai_response = $2, ai_response_json = $3, status = $4, updated_at = NOW()
		WHERE id = $1`, raw, aiJSON, status)
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.updateOne(ctx, "update status", id, `
		UPDATE paperless_documents SET status = $2, updated_at = NOW() WHERE id = $1`, status)
}

func (r *Repository) SetInvoiceDate(ctx context.Context, id int64, date time.Time) error {
	return r.updateOne(ctx, "set invoice date", id, `
		UPDATE paperless_documents SET invoice_date = $2, updated_at = NOW() WHERE id = $1`, date)
}

// ListWithoutInvoiceDate returns documents lacking an invoice date with an
// id above afterID, in id order. A limit of zero or less means no limit.
func (r *Repository) ListWithoutInvoiceDate(ctx context.Context, afterID int64, limit int) ([]DocumentText, error) {
	query := `
		SELECT id, paperless_document_id, fulltext
		FROM paperless_documents
		WHERE invoice_date IS NULL AND id > $1
		ORDER BY id`
	args := []interface{}{afterID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents without invoice date: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var docs []DocumentText
	for rows.Next() {
		var d DocumentText
		if err := rows.Scan(&d.ID, &d.PaperlessDocumentID, &d.Fulltext); err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", ErrQueryFailed, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents without invoice date: %v", ErrQueryFailed, err)
	}
	return docs, nil
}

func (r *Repository) updateOne(ctx context.Context, op string, id int64, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("%w: %s for document %d: %v", ErrInsertFailed, op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s for document %d: %v", ErrInsertFailed, op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %d", ErrNotFound, id)
	}
	return nil
}
