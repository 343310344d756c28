// internal/repository/invoices.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FindPurchaseInvoice returns the invoice header for (supplier, billNo).
func (r *Repository) FindPurchaseInvoice(ctx context.Context, supplier, billNo string) (*PurchaseInvoice, error) {
	var (
		inv     PurchaseInvoice
		dueDate sql.NullTime
		docID   sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, supplier, bill_no, bill_date, due_date, currency,
		       net_total, tax_total, grand_total, document_id
		FROM purchase_invoices
		WHERE supplier = $1 AND bill_no = $2`, supplier, billNo).Scan(
		&inv.ID, &inv.Supplier, &inv.BillNo, &inv.BillDate, &dueDate, &inv.Currency,
		&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal, &docID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find purchase invoice %q/%q: %v", ErrQueryFailed, supplier, billNo, err)
	}
	inv.DueDate = timePtr(dueDate)
	if docID.Valid {
		id := docID.Int64
		inv.DocumentID = &id
	}
	return &inv, nil
}

// InsertPurchaseInvoice writes the header and its items in one transaction
// and returns the new invoice id.
func (r *Repository) InsertPurchaseInvoice(ctx context.Context, inv *PurchaseInvoice) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var docID sql.NullInt64
		if inv.DocumentID != nil {
			docID = sql.NullInt64{Int64: *inv.DocumentID, Valid: true}
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO purchase_invoices (
				supplier, bill_no, bill_date, due_date, currency,
				net_total, tax_total, grand_total, document_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			inv.Supplier, inv.BillNo, inv.BillDate, nullTime(inv.DueDate), inv.Currency,
			inv.NetTotal, inv.TaxTotal, inv.GrandTotal, docID,
		).Scan(&id)
		if err != nil {
			return err
		}

		for _, it := range inv.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO purchase_invoice_items (
					invoice_id, idx, item_code, description, qty, rate, amount
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, it.Idx, it.ItemCode, it.Description, it.Qty, it.Rate, it.Amount,
			)
			if err != nil {
				return fmt.Errorf("item %d: %v", it.Idx, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: insert purchase invoice %q/%q: %v", ErrInsertFailed, inv.Supplier, inv.BillNo, err)
	}
	inv.ID = id
	return id, nil
}
