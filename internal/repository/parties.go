// internal/repository/parties.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const supplierColumns = `id, name, tax_id, supplier_group, supplier_type, paperless_synced`

func (r *Repository) FindSupplierByTaxID(ctx context.Context, taxID string) (*Supplier, error) {
	if taxID == "" {
		return nil, nil
	}
	return r.findSupplier(ctx, "tax id", `SELECT `+supplierColumns+` FROM suppliers WHERE tax_id = $1 ORDER BY id LIMIT 1`, taxID)
}

func (r *Repository) FindSupplierByName(ctx context.Context, name string) (*Supplier, error) {
	return r.findSupplier(ctx, "name", `SELECT `+supplierColumns+` FROM suppliers WHERE name = $1`, name)
}

func (r *Repository) findSupplier(ctx context.Context, by, query string, arg string) (*Supplier, error) {
	var (
		s     Supplier
		taxID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&s.ID, &s.Name, &taxID, &s.Group, &s.Type, &s.Synced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find supplier by %s: %v", ErrQueryFailed, by, err)
	}
	s.TaxID = stringPtr(taxID)
	return &s, nil
}

// InsertSupplier creates a company supplier in the default group.
func (r *Repository) InsertSupplier(ctx context.Context, name string, taxID *string) (*Supplier, error) {
	s := Supplier{Name: name, TaxID: taxID, Group: DefaultSupplierGroup, Type: DefaultSupplierType}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO suppliers (name, tax_id, supplier_group, supplier_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, s.Name, nullString(taxID), s.Group, s.Type).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: insert supplier %q: %v", ErrInsertFailed, name, err)
	}
	return &s, nil
}

func (r *Repository) SetSupplierPrimaryContact(ctx context.Context, supplierID, contactID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE suppliers SET primary_contact_id = $2 WHERE id = $1`, supplierID, contactID)
	if err != nil {
		return fmt.Errorf("%w: set primary contact for supplier %d: %v", ErrInsertFailed, supplierID, err)
	}
	return nil
}

func (r *Repository) SetSupplierPrimaryAddress(ctx context.Context, supplierID, addressID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE suppliers SET primary_address_id = $2 WHERE id = $1`, supplierID, addressID)
	if err != nil {
		return fmt.Errorf("%w: set primary address for supplier %d: %v", ErrInsertFailed, supplierID, err)
	}
	return nil
}

func (r *Repository) ListUnsyncedSuppliers(ctx context.Context) ([]Party, error) {
	return r.listParties(ctx, `SELECT id, name FROM suppliers WHERE NOT paperless_synced ORDER BY id`)
}

func (r *Repository) ListUnsyncedCustomers(ctx context.Context) ([]Party, error) {
	return r.listParties(ctx, `SELECT id, name FROM customers WHERE NOT paperless_synced ORDER BY id`)
}

func (r *Repository) MarkSupplierSynced(ctx context.Context, id int64) error {
	return r.markSynced(ctx, `UPDATE suppliers SET paperless_synced = TRUE WHERE id = $1`, id)
}

func (r *Repository) MarkCustomerSynced(ctx context.Context, id int64) error {
	return r.markSynced(ctx, `UPDATE customers SET paperless_synced = TRUE WHERE id = $1`, id)
}

func (r *Repository) listParties(ctx context.Context, query string) ([]Party, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list unsynced parties: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("%w: scan party: %v", ErrQueryFailed, err)
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list unsynced parties: %v", ErrQueryFailed, err)
	}
	return parties, nil
}

func (r *Repository) markSynced(ctx context.Context, query string, id int64) error {
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: mark party %d synced: %v", ErrInsertFailed, id, err)
	}
	return nil
}
