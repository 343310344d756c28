// internal/repository/addresses.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (r *Repository) FindAddress(ctx context.Context, street, city, postal string, country *string) (*Address, error) {
	var (
		a          Address
		countryCol sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, address_title, address_line1, city, pincode, country FROM addresses
		WHERE address_line1 = $1 AND city = $2 AND pincode = $3 AND country IS NOT DISTINCT FROM $4
		ORDER BY id LIMIT 1`, street, city, postal, nullString(country)).
		Scan(&a.ID, &a.Title, &a.Line1, &a.City, &a.Pincode, &countryCol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find address: %v", ErrQueryFailed, err)
	}
	a.Country = stringPtr(countryCol)
	return &a, nil
}

// InsertAddress stores a as the main address of the linked record.
func (r *Repository) InsertAddress(ctx context.Context, a Address, linkDoctype, linkName string) (*Address, error) {
	a.Title = MainAddressTitle
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO addresses (address_title, address_line1, city, pincode, country)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, a.Title, a.Line1, a.City, a.Pincode, nullString(a.Country)).Scan(&a.ID)
		if err != nil {
			return err
		}
		return linkAddress(ctx, tx, a.ID, linkDoctype, linkName)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: insert address: %v", ErrInsertFailed, err)
	}
	return &a, nil
}

// LinkAddress adds a link; existing links are kept.
func (r *Repository) LinkAddress(ctx context.Context, addressID int64, linkDoctype, linkName string) error {
	if err := linkAddress(ctx, r.db, addressID, linkDoctype, linkName); err != nil {
		return fmt.Errorf("%w: link address %d: %v", ErrInsertFailed, addressID, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func linkAddress(ctx context.Context, db execer, addressID int64, linkDoctype, linkName string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO address_links (address_id, link_doctype, link_name) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, addressID, linkDoctype, linkName)
	return err
}
