package erp

import (
	"context"
	"errors"
	"testing"
	"time"

	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceJSON = `{
  "InvoiceDetails": {
    "ContactPerson": "Thorsten Bulk",
    "ContactPhone": "(0 54 71) 8 06-455",
    "SupplierName": "MICHAELTELECOM AG",
    "SupplierTaxID": "DE123456789",
    "SupplierAddress": {"Street": "Bruchheide 34", "City": "Bohmte", "PostalCode": 49163, "Country": "DE"},
    "InvoiceNumber": "R-2025-001",
    "InvoiceDate": "30.10.2025",
    "Currency": "eur",
    "TaxAmount": "19,00",
    "TotalAmount": "119,00 EUR",
    "LineItems": [
      {"Description": "Router FRITZ!Box 7590", "Quantity": 2, "Amount": "100,00"},
      {"Description": "", "Amount": 5},
      {"Description": "Versand", "Amount": null}
    ]
  }
}`

// ==========================
// Parsing
// ==========================

func TestParseInvoiceDetails(t *testing.T) {
	d, err := ParseInvoiceDetails(invoiceJSON)
	require.NoError(t, err)

	assert.Equal(t, "MICHAELTELECOM AG", d.SupplierName)
	assert.Equal(t, "49163", d.SupplierAddress.PostalCode.String())
	assert.True(t, d.TotalAmount.Valid)
	assert.True(t, decimal.RequireFromString("119").Equal(d.TotalAmount.Value))
	assert.Len(t, d.LineItems, 3)
	assert.False(t, d.LineItems[2].Amount.Valid)
}

func TestParseInvoiceDetails_Bare(t *testing.T) {
	d, err := ParseInvoiceDetails(`{"SupplierName": " ACME ", "InvoiceNumber": 4711}`)
	require.NoError(t, err)
	assert.Equal(t, "ACME", d.SupplierName)
	assert.Equal(t, "4711", d.InvoiceNumber.String())
}

func TestParseInvoiceDetails_Invalid(t *testing.T) {
	for _, raw := range []string{
		"The content is not in JSON format",
		"Error on decode JSON: unexpected EOF",
		`{"InvoiceDetails": {"LineItems": "x"}}`,
	} {
		_, err := ParseInvoiceDetails(raw)
		assert.True(t, errors.Is(err, ErrInvalidJSON), raw)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"119,00", "119", true},
		{"1.234,56 €", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"EUR 99.90", "99.9", true},
		{"-5,5", "-5.5", true},
		{"1,234,567", "1234567", true},
		{"1,234", "1234", true},
		{"$1,234", "1234", true},
		{"1,234,567.89", "1234567.89", true},
		{"0,125", "0.125", true},
		{"1.234.567", "1234567", true},
		{"1.234.567,5", "1234567.5", true},
		{"", "0", false},
		{"n/a", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, first, last string }{
		{"Thorsten Bulk", "Thorsten", "Bulk"},
		{"Anna Maria  Schmidt", "Anna", "Maria Schmidt"},
		{"Cher", "Cher", ""},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		assert.Equal(t, tt.first, first)
		assert.Equal(t, tt.last, last)
	}
}

func TestItemCodeFor(t *testing.T) {
	assert.Equal(t, "ROUTER-FRITZ-BOX-7590", ItemCodeFor("Router FRITZ!Box 7590"))
	assert.Equal(t, "MISC", ItemCodeFor("!!!"))
}

// ==========================
// Supplier upsert
// ==========================

func TestSupplierUpsert_CreatesEverything(t *testing.T) {
	store := newMemStore()
	svc := NewSupplierService(store, logger.NewTestLogger(t))

	d, err := ParseInvoiceDetails(invoiceJSON)
	require.NoError(t, err)

	res, err := svc.Upsert(context.Background(), d)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, MsgSupplierCreated, res.Message)
	assert.Equal(t, "All Supplier Groups", res.Supplier.Group)

	require.Len(t, store.contacts, 1)
	assert.Equal(t, "Thorsten", store.contacts[0].FirstName)
	assert.Equal(t, "Bulk", store.contacts[0].LastName)
	assert.Equal(t, []string{"Supplier:MICHAELTELECOM AG"}, store.contactLinks[store.contacts[0].ID])

	require.Len(t, store.addresses, 1)
	assert.Equal(t, "Main Address", store.addresses[0].Title)
	assert.Equal(t, "Germany", *store.addresses[0].Country)
	assert.Equal(t, [2]int64{*res.ContactID, *res.AddressID}, store.primary[res.Supplier.ID])
}

func TestSupplierUpsert_ExistingIsUpdated(t *testing.T) {
	store := newMemStore()
	svc := NewSupplierService(store, logger.NewTestLogger(t))
	ctx := context.Background()

	d, _ := ParseInvoiceDetails(invoiceJSON)
	_, err := svc.Upsert(ctx, d)
	require.NoError(t, err)

	d.ContactPhone = "+49 5471 806-0"
	res, err := svc.Upsert(ctx, d)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, MsgSupplierUpdated, res.Message)
	assert.Len(t, store.suppliers, 1)
	assert.Len(t, store.contacts, 1)
	assert.Equal(t, "+49 5471 806-0", *store.contacts[0].Phone)
	assert.Len(t, store.addresses, 1)
	assert.Len(t, store.addressLinks[store.addresses[0].ID], 1)
}

func TestSupplierUpsert_KeepsPhoneWhenAnswerHasNone(t *testing.T) {
	store := newMemStore()
	svc := NewSupplierService(store, logger.NewTestLogger(t))
	ctx := context.Background()

	d := &InvoiceDetails{SupplierName: "ACME", ContactPerson: "Jane Doe", ContactPhone: "0541 123"}
	_, err := svc.Upsert(ctx, d)
	require.NoError(t, err)

	d.ContactPhone = ""
	_, err = svc.Upsert(ctx, d)
	require.NoError(t, err)

	require.Len(t, store.contacts, 1)
	require.NotNil(t, store.contacts[0].Phone)
	assert.Equal(t, "0541 123", *store.contacts[0].Phone)
}

func TestSupplierUpsert_SingleTransaction(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewSupplierService(repository.New(db), logger.NewTestLogger(t))
	supplierCols := []string{"id", "name", "tax_id", "supplier_group", "supplier_type", "paperless_synced"}

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`FROM suppliers WHERE name = \$1`).
		WithArgs("ACME").
		WillReturnRows(sqlmock.NewRows(supplierCols))
	sqlMock.ExpectQuery(`INSERT INTO suppliers`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	sqlMock.ExpectQuery(`FROM contacts`).
		WithArgs("Jane", "Doe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "phone"}).
			AddRow(8, "Jane", "Doe", "0541 123"))
	sqlMock.ExpectExec(`DELETE FROM contact_links`).WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectExec(`INSERT INTO contact_links`).WillReturnError(errors.New("fk violation"))
	sqlMock.ExpectRollback()

	_, err = svc.Upsert(context.Background(), &InvoiceDetails{SupplierName: "ACME", ContactPerson: "Jane Doe"})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrInsertFailed)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestSupplierUpsert_MatchesByTaxIDFirst(t *testing.T) {
	store := newMemStore()
	tax := "DE123456789"
	store.suppliers = append(store.suppliers, &repository.Supplier{ID: 1, Name: "Michael Telecom", TaxID: &tax})
	svc := NewSupplierService(store, logger.NewTestLogger(t))

	res, err := svc.Upsert(context.Background(), &InvoiceDetails{SupplierName: "MICHAELTELECOM AG", SupplierTaxID: tax})
	require.NoError(t, err)
	assert.Equal(t, "Michael Telecom", res.Supplier.Name)
	assert.Nil(t, res.ContactID)
	assert.Nil(t, res.AddressID)
}

func TestSupplierUpsert_MissingName(t *testing.T) {
	svc := NewSupplierService(newMemStore(), logger.NewTestLogger(t))
	_, err := svc.Upsert(context.Background(), &InvoiceDetails{})
	assert.ErrorIs(t, err, ErrMissingSupplierName)
}

// ==========================
// Purchase invoice
// ==========================

func TestBuildInvoice(t *testing.T) {
	d, err := ParseInvoiceDetails(invoiceJSON)
	require.NoError(t, err)

	inv, err := BuildInvoice(d, nil)
	require.NoError(t, err)

	assert.Equal(t, "R-2025-001", inv.BillNo)
	assert.Equal(t, time.Date(2025, 10, 30, 0, 0, 0, 0, time.UTC), inv.BillDate)
	assert.Equal(t, "EUR", inv.Currency)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "ROUTER-FRITZ-BOX-7590", inv.Items[0].ItemCode)
	assert.True(t, decimal.NewFromInt(50).Equal(inv.Items[0].Rate))
	assert.True(t, decimal.NewFromInt(100).Equal(inv.NetTotal))
	assert.True(t, decimal.NewFromInt(19).Equal(inv.TaxTotal))
	assert.True(t, decimal.NewFromInt(119).Equal(inv.GrandTotal))
}

func TestBuildInvoice_MissingFields(t *testing.T) {
	_, err := BuildInvoice(&InvoiceDetails{InvoiceDate: "sometime"}, nil)

	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"SupplierName", "InvoiceNumber", "InvoiceDate", "LineItems"}, missing.Fields)
}

func TestBuildInvoice_FallbackDate(t *testing.T) {
	fallback := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d := &InvoiceDetails{
		SupplierName:  "ACME",
		InvoiceNumber: "1",
		LineItems:     []LineItem{{Description: "Service", Amount: Amount{Value: decimal.NewFromInt(10), Valid: true}}},
	}

	inv, err := BuildInvoice(d, &fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, inv.BillDate)
	assert.True(t, decimal.NewFromInt(10).Equal(inv.GrandTotal))
}

func newInvoiceService(t *testing.T, store *memStore) *InvoiceService {
	log := logger.NewTestLogger(t)
	return NewInvoiceService(store, NewSupplierService(store, log), log)
}

func TestInvoiceCreate(t *testing.T) {
	store := newMemStore()
	store.documents[3] = &repository.Document{ID: 3, Status: repository.StatusAIResponseReceived}
	svc := newInvoiceService(t, store)

	d, _ := ParseInvoiceDetails(invoiceJSON)
	res, err := svc.Create(context.Background(), 3, d)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, "MICHAELTELECOM AG", res.Supplier)
	assert.Equal(t, "MICHAELTELECOM AG/R-2025-001 119.00", res.Summary())
	assert.Equal(t, repository.StatusInvoiceCreated, store.documents[3].Status)
	assert.Contains(t, store.items, "ROUTER-FRITZ-BOX-7590")
	require.Len(t, store.invoices, 1)
	assert.Equal(t, int64(3), *store.invoices[0].DocumentID)
}

func TestInvoiceCreate_Idempotent(t *testing.T) {
	store := newMemStore()
	store.documents[3] = &repository.Document{ID: 3}
	svc := newInvoiceService(t, store)
	ctx := context.Background()

	d, _ := ParseInvoiceDetails(invoiceJSON)
	first, err := svc.Create(ctx, 3, d)
	require.NoError(t, err)

	second, err := svc.Create(ctx, 3, d)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.InvoiceID, second.InvoiceID)
	assert.Len(t, store.invoices, 1)
}

func TestInvoiceCreate_ValidationBeforeWrites(t *testing.T) {
	store := newMemStore()
	store.documents[3] = &repository.Document{ID: 3, Status: "new"}
	svc := newInvoiceService(t, store)

	_, err := svc.Create(context.Background(), 3, &InvoiceDetails{SupplierName: "ACME"})

	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Empty(t, store.suppliers)
	assert.Equal(t, "new", store.documents[3].Status)
}

func TestInvoiceCreate_UsesStoredInvoiceDate(t *testing.T) {
	stored := time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.documents[3] = &repository.Document{ID: 3, InvoiceDate: &stored}
	svc := newInvoiceService(t, store)

	d, _ := ParseInvoiceDetails(invoiceJSON)
	d.InvoiceDate = ""

	res, err := svc.Create(context.Background(), 3, d)
	require.NoError(t, err)
	assert.Equal(t, stored, res.BillDate)
}

func TestInvoiceCreate_UnknownDocument(t *testing.T) {
	svc := newInvoiceService(t, newMemStore())
	_, err := svc.Create(context.Background(), 42, &InvoiceDetails{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvoiceCreate_InsertFailure(t *testing.T) {
	store := newMemStore()
	store.documents[3] = &repository.Document{ID: 3, Status: "x"}
	store.failInsertInvoice = repository.ErrInsertFailed
	svc := newInvoiceService(t, store)

	d, _ := ParseInvoiceDetails(invoiceJSON)
	_, err := svc.Create(context.Background(), 3, d)
	assert.ErrorIs(t, err, repository.ErrInsertFailed)
	assert.Equal(t, "x", store.documents[3].Status)
}
