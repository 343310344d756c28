// internal/repository/contacts.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (r *Repository) FindContactByName(ctx context.Context, first, last string) (*Contact, error) {
	var (
		c     Contact
		phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, phone FROM contacts
		WHERE first_name = $1 AND last_name = $2
		ORDER BY id LIMIT 1`, first, last).Scan(&c.ID, &c.FirstName, &c.LastName, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find contact %q %q: %v", ErrQueryFailed, first, last, err)
	}
	c.Phone = stringPtr(phone)
	return &c, nil
}

func (r *Repository) InsertContact(ctx context.Context, first, last string, phone *string) (*Contact, error) {
	c := Contact{FirstName: first, LastName: last, Phone: phone}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contacts (first_name, last_name, phone) VALUES ($1, $2, $3)
		RETURNING id`, first, last, nullString(phone)).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: insert contact %q %q: %v", ErrInsertFailed, first, last, err)
	}
	return &c, nil
}

func (r *Repository) UpdateContactPhone(ctx context.Context, id int64, phone *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET phone = $2, updated_at = NOW() WHERE id = $1`, id, nullString(phone))
	if err != nil {
		return fmt.Errorf("%w: update contact %d phone: %v", ErrInsertFailed, id, err)
	}
	return nil
}

// LinkContact replaces the contact's links with a single link to the
// named record.
func (r *Repository) LinkContact(ctx context.Context, contactID int64, linkDoctype, linkName string) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contact_links WHERE contact_id = $1`, contactID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contact_links (contact_id, link_doctype, link_name) VALUES ($1, $2, $3)`,
			contactID, linkDoctype, linkName)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: link contact %d to %s %q: %v", ErrInsertFailed, contactID, linkDoctype, linkName, err)
	}
	return nil
}
