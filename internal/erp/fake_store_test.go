package erp

import (
	"context"
	"errors"
	"strings"

	"paperless-workers/internal/repository"
)

// memStore is an in-memory SupplierStore and InvoiceStore.
type memStore struct {
	suppliers    []*repository.Supplier
	contacts     []*repository.Contact
	contactLinks map[int64][]string
	addresses    []*repository.Address
	addressLinks map[int64][]string
	countries    map[string]string
	items        map[string]repository.Item
	invoices     []*repository.PurchaseInvoice
	documents    map[int64]*repository.Document
	primary      map[int64][2]int64

	failInsertInvoice error
}

func newMemStore() *memStore {
	return &memStore{
		contactLinks: map[int64][]string{},
		addressLinks: map[int64][]string{},
		countries:    map[string]string{"de": "Germany", "at": "Austria"},
		items:        map[string]repository.Item{},
		documents:    map[int64]*repository.Document{},
		primary:      map[int64][2]int64{},
	}
}

func (m *memStore) FindSupplierByTaxID(_ context.Context, taxID string) (*repository.Supplier, error) {
	if taxID == "" {
		return nil, nil
	}
	for _, s := range m.suppliers {
		if s.TaxID != nil && *s.TaxID == taxID {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindSupplierByName(_ context.Context, name string) (*repository.Supplier, error) {
	for _, s := range m.suppliers {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertSupplier(_ context.Context, name string, taxID *string) (*repository.Supplier, error) {
	s := &repository.Supplier{
		ID: int64(len(m.suppliers) + 1), Name: name, TaxID: taxID,
		Group: repository.DefaultSupplierGroup, Type: repository.DefaultSupplierType,
	}
	m.suppliers = append(m.suppliers, s)
	return s, nil
}

func (m *memStore) SetSupplierPrimaryContact(_ context.Context, supplierID, contactID int64) error {
	p := m.primary[supplierID]
	p[0] = contactID
	m.primary[supplierID] = p
	return nil
}

func (m *memStore) SetSupplierPrimaryAddress(_ context.Context, supplierID, addressID int64) error {
	p := m.primary[supplierID]
	p[1] = addressID
	m.primary[supplierID] = p
	return nil
}

func (m *memStore) FindContactByName(_ context.Context, first, last string) (*repository.Contact, error) {
	for _, c := range m.contacts {
		if c.FirstName == first && c.LastName == last {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertContact(_ context.Context, first, last string, phone *string) (*repository.Contact, error) {
	c := &repository.Contact{ID: int64(len(m.contacts) + 1), FirstName: first, LastName: last, Phone: phone}
	m.contacts = append(m.contacts, c)
	return c, nil
}

func (m *memStore) UpdateContactPhone(_ context.Context, id int64, phone *string) error {
	for _, c := range m.contacts {
		if c.ID == id {
			c.Phone = phone
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) LinkContact(_ context.Context, contactID int64, doctype, name string) error {
	m.contactLinks[contactID] = []string{doctype + ":" + name}
	return nil
}

func (m *memStore) FindCountryByCode(_ context.Context, code string) (*repository.Country, error) {
	name, ok := m.countries[strings.ToLower(code)]
	if !ok {
		return nil, nil
	}
	return &repository.Country{Code: strings.ToLower(code), Name: name}, nil
}

func (m *memStore) FindAddress(_ context.Context, street, city, postal string, country *string) (*repository.Address, error) {
	for _, a := range m.addresses {
		sameCountry := (a.Country == nil && country == nil) || (a.Country != nil && country != nil && *a.Country == *country)
		if a.Line1 == street && a.City == city && a.Pincode == postal && sameCountry {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertAddress(_ context.Context, a repository.Address, doctype, name string) (*repository.Address, error) {
	a.ID = int64(len(m.addresses) + 1)
	a.Title = repository.MainAddressTitle
	m.addresses = append(m.addresses, &a)
	m.addressLinks[a.ID] = append(m.addressLinks[a.ID], doctype+":"+name)
	return &a, nil
}

func (m *memStore) LinkAddress(_ context.Context, addressID int64, doctype, name string) error {
	for _, l := range m.addressLinks[addressID] {
		if l == doctype+":"+name {
			return nil
		}
	}
	m.addressLinks[addressID] = append(m.addressLinks[addressID], doctype+":"+name)
	return nil
}

func (m *memStore) GetDocument(_ context.Context, id int64) (*repository.Document, error) {
	d, ok := m.documents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (m *memStore) FindItemByCode(_ context.Context, code string) (*repository.Item, error) {
	it, ok := m.items[code]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (m *memStore) InsertItem(_ context.Context, it repository.Item) (*repository.Item, error) {
	m.items[it.Code] = it
	return &it, nil
}

func (m *memStore) FindPurchaseInvoice(_ context.Context, supplier, billNo string) (*repository.PurchaseInvoice, error) {
	for _, inv := range m.invoices {
		if inv.Supplier == supplier && inv.BillNo == billNo {
			return inv, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertPurchaseInvoice(_ context.Context, inv *repository.PurchaseInvoice) (int64, error) {
	if m.failInsertInvoice != nil {
		return 0, m.failInsertInvoice
	}
	inv.ID = int64(len(m.invoices) + 100)
	m.invoices = append(m.invoices, inv)
	return inv.ID, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, status string) error {
	d, ok := m.documents[id]
	if !ok {
		return errors.New("no document")
	}
	d.Status = status
	return nil
}
