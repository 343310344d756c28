// internal/repository/lookups.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// FindERPDoctype maps a Paperless document type name to an ERP doctype.
// It returns "" when the type is empty or unmapped.
func (r *Repository) FindERPDoctype(ctx context.Context, paperlessType string) (string, error) {
	if paperlessType == "" {
		return "", nil
	}
	var doctype string
	err := r.db.QueryRowContext(ctx, `
		SELECT erp_doctype FROM document_type_mappings
		WHERE paperless_document_type = $1`, paperlessType).Scan(&doctype)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: find erp doctype for %q: %v", ErrQueryFailed, paperlessType, err)
	}
	return doctype, nil
}

// FindPromptForDoctype returns the name of the first prompt registered for
// doctype, or "" when there is none.
func (r *Repository) FindPromptForDoctype(ctx context.Context, doctype string) (string, error) {
	if doctype == "" {
		return "", nil
	}
	var name string
	err := r.db.QueryRowContext(ctx, `
		SELECT name FROM ai_prompts WHERE for_doctype = $1 ORDER BY name LIMIT 1`, doctype).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: find prompt for %q: %v", ErrQueryFailed, doctype, err)
	}
	return name, nil
}

func (r *Repository) GetPrompt(ctx context.Context, name string) (*Prompt, error) {
	var (
		p          Prompt
		forDoctype sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT name, for_doctype, prompt_text FROM ai_prompts WHERE name = $1`, name).
		Scan(&p.Name, &forDoctype, &p.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: prompt %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get prompt %q: %v", ErrQueryFailed, name, err)
	}
	p.ForDoctype = stringPtr(forDoctype)
	return &p, nil
}

// FindCountryByCode resolves an ISO code case-insensitively.
func (r *Repository) FindCountryByCode(ctx context.Context, code string) (*Country, error) {
	var c Country
	err := r.db.QueryRowContext(ctx, `
		SELECT code, name FROM countries WHERE code = $1`, strings.ToLower(code)).Scan(&c.Code, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find country %q: %v", ErrQueryFailed, code, err)
	}
	return &c, nil
}

func (r *Repository) FindItemByCode(ctx context.Context, code string) (*Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx, `
		SELECT code, name, item_group, uom FROM items WHERE code = $1`, code).
		Scan(&it.Code, &it.Name, &it.ItemGroup, &it.UOM)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find item %q: %v", ErrQueryFailed, code, err)
	}
	return &it, nil
}

func (r *Repository) InsertItem(ctx context.Context, it Item) (*Item, error) {
	if it.ItemGroup == "" {
		it.ItemGroup = DefaultItemGroup
	}
	if it.UOM == "" {
		it.UOM = "Nos"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO items (code, name, item_group, uom) VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING`, it.Code, it.Name, it.ItemGroup, it.UOM)
	if err != nil {
		return nil, fmt.Errorf("%w: insert item %q: %v", ErrInsertFailed, it.Code, err)
	}
	return &it, nil
}
