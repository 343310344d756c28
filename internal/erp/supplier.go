// internal/erp/supplier.go
package erp

import (
	"context"
	"errors"
	"strings"

	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/repository"
)

const (
	MsgSupplierCreated = "Contact created successfully"
	MsgSupplierUpdated = "Contact already exists, updated successfully"
)

var ErrMissingSupplierName = errors.New("MISSING_SUPPLIER_NAME")

type SupplierStore interface {
	FindSupplierByTaxID(ctx context.Context, taxID string) (*repository.Supplier, error)
	FindSupplierByName(ctx context.Context, name string) (*repository.Supplier, error)
	InsertSupplier(ctx context.Context, name string, taxID *string) (*repository.Supplier, error)
	SetSupplierPrimaryContact(ctx context.Context, supplierID, contactID int64) error
	SetSupplierPrimaryAddress(ctx context.Context, supplierID, addressID int64) error

	FindContactByName(ctx context.Context, first, last string) (*repository.Contact, error)
	InsertContact(ctx context.Context, first, last string, phone *string) (*repository.Contact, error)
	UpdateContactPhone(ctx context.Context, id int64, phone *string) error
	LinkContact(ctx context.Context, contactID int64, linkDoctype, linkName string) error

	FindCountryByCode(ctx context.Context, code string) (*repository.Country, error)
	FindAddress(ctx context.Context, street, city, postal string, country *string) (*repository.Address, error)
	InsertAddress(ctx context.Context, a repository.Address, linkDoctype, linkName string) (*repository.Address, error)
	LinkAddress(ctx context.Context, addressID int64, linkDoctype, linkName string) error
}

type SupplierResult struct {
	Supplier  *repository.Supplier
	Created   bool
	ContactID *int64
	AddressID *int64
	Message   string
}

type SupplierService struct {
	store  SupplierStore
	logger logger.Logger
}

func NewSupplierService(store SupplierStore, log logger.Logger) *SupplierService {
	return &SupplierService{store: store, logger: log}
}

// txStore groups the supplier writes of one Upsert into a transaction.
type txStore interface {
	InTx(ctx context.Context, fn func(tx *repository.Repository) error) error
}

// Upsert finds or creates the supplier named in d, then its contact and
// address, and links both to it. When the store supports transactions
// all writes commit together.
func (s *SupplierService) Upsert(ctx context.Context, d *InvoiceDetails) (*SupplierResult, error) {
	if d.SupplierName == "" {
		return nil, ErrMissingSupplierName
	}

	var result *SupplierResult
	err := s.inTx(ctx, func(store SupplierStore) error {
		var err error
		result, err = s.upsert(ctx, store, d)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplier upserted", map[string]interface{}{
		"supplier": result.Supplier.Name,
		"created":  result.Created,
	})
	return result, nil
}

func (s *SupplierService) inTx(ctx context.Context, fn func(store SupplierStore) error) error {
	if txs, ok := s.store.(txStore); ok {
		return txs.InTx(ctx, func(tx *repository.Repository) error { return fn(tx) })
	}
	return fn(s.store)
}

func (s *SupplierService) upsert(ctx context.Context, store SupplierStore, d *InvoiceDetails) (*SupplierResult, error) {
	supplier, err := store.FindSupplierByTaxID(ctx, strings.TrimSpace(d.SupplierTaxID))
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		if supplier, err = store.FindSupplierByName(ctx, d.SupplierName); err != nil {
			return nil, err
		}
	}

	result := &SupplierResult{Message: MsgSupplierUpdated}
	if supplier == nil {
		if supplier, err = store.InsertSupplier(ctx, d.SupplierName, optional(d.SupplierTaxID)); err != nil {
			return nil, err
		}
		result.Created = true
		result.Message = MsgSupplierCreated
	}
	result.Supplier = supplier

	if result.ContactID, err = s.upsertContact(ctx, store, supplier, d); err != nil {
		return nil, err
	}
	if result.AddressID, err = s.upsertAddress(ctx, store, supplier, d.SupplierAddress); err != nil {
		return nil, err
	}
	return result, nil
}

// upsertContact leaves the phone of an existing contact alone unless the
// answer carries a new one.
func (s *SupplierService) upsertContact(ctx context.Context, store SupplierStore, supplier *repository.Supplier, d *InvoiceDetails) (*int64, error) {
	if d.ContactPerson == "" {
		return nil, nil
	}
	first, last := SplitName(d.ContactPerson)
	phone := optional(d.ContactPhone)

	contact, err := store.FindContactByName(ctx, first, last)
	if err != nil {
		return nil, err
	}
	switch {
	case contact == nil:
		if contact, err = store.InsertContact(ctx, first, last, phone); err != nil {
			return nil, err
		}
	case phone != nil:
		if err := store.UpdateContactPhone(ctx, contact.ID, phone); err != nil {
			return nil, err
		}
	}

	if err := store.LinkContact(ctx, contact.ID, repository.LinkDoctypeSupplier, supplier.Name); err != nil {
		return nil, err
	}
	if err := store.SetSupplierPrimaryContact(ctx, supplier.ID, contact.ID); err != nil {
		return nil, err
	}
	return &contact.ID, nil
}

func (s *SupplierService) upsertAddress(ctx context.Context, store SupplierStore, supplier *repository.Supplier, a *SupplierAddress) (*int64, error) {
	if a == nil || strings.TrimSpace(a.Street) == "" {
		return nil, nil
	}

	var country *string
	if code := strings.TrimSpace(a.Country); code != "" {
		c, err := store.FindCountryByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if c != nil {
			country = &c.Name
		} else {
			s.logger.Warn("unknown country code", map[string]interface{}{"code": code})
		}
	}

	street := strings.TrimSpace(a.Street)
	city := strings.TrimSpace(a.City)
	postal := a.PostalCode.String()

	addr, err := store.FindAddress(ctx, street, city, postal, country)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		addr, err = store.InsertAddress(ctx, repository.Address{
			Line1: street, City: city, Pincode: postal, Country: country,
		}, repository.LinkDoctypeSupplier, supplier.Name)
		if err != nil {
			return nil, err
		}
	} else if err := store.LinkAddress(ctx, addr.ID, repository.LinkDoctypeSupplier, supplier.Name); err != nil {
		return nil, err
	}

	if err := store.SetSupplierPrimaryAddress(ctx, supplier.ID, addr.ID); err != nil {
		return nil, err
	}
	return &addr.ID, nil
}

// SplitName splits on the first space; the remainder is the last name.
func SplitName(full string) (first, last string) {
	full = strings.Join(strings.Fields(full), " ")
	first, last, _ = strings.Cut(full, " ")
	return first, last
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
