package createpurchaseinvoice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"paperless-workers/internal/common/aws"
	apperrors "paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/erp"
	"paperless-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

type mockDocuments struct {
	mock.Mock
}

func (m *mockDocuments) GetDocument(ctx context.Context, id int64) (*repository.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Document), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyReview(ctx context.Context, req aws.ReviewRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event aws.Event) error {
	return m.Called(ctx, event).Error(0)
}

type fixture struct {
	handler  *Handler
	sql      sqlmock.Sqlmock
	docs     *mockDocuments
	notifier *mockNotifier
	events   *mockPublisher
}

func newFixture(t *testing.T, aiJSON *string) *fixture {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{sql: sqlMock, docs: &mockDocuments{}, notifier: &mockNotifier{}, events: &mockPublisher{}}
	f.docs.On("GetDocument", mock.Anything, int64(7)).Return(&repository.Document{
		ID: 7, PaperlessDocumentID: 70, Title: "Rechnung Oktober", AIResponseJSON: aiJSON,
	}, nil)

	log := logger.NewTestLogger(t)
	repo := repository.New(db)
	invoices := erp.NewInvoiceService(repo, erp.NewSupplierService(repo, log), log)
	f.handler = NewHandler(&Config{}, f.docs, invoices, f.notifier, f.events, log)
	return f
}

func strp(s string) *string { return &s }

const invoiceJSON = `{
	"SupplierName": "MICHAELTELECOM AG",
	"InvoiceNumber": "R-2025-001",
	"InvoiceDate": "30.10.2025",
	"TaxAmount": "19,00",
	"TotalAmount": "119,00 EUR",
	"LineItems": [{"Description": "Router", "Quantity": 2, "Amount": 100}]
}`

var (
	documentRow = []string{
		"id", "paperless_document_id", "title", "paperless_correspondent", "paperless_document_type",
		"erp_doctype", "ai_prompt", "status", "fulltext", "ai_response", "ai_response_json",
		"invoice_date", "created_at", "updated_at",
	}
	supplierRow = []string{"id", "name", "tax_id", "supplier_group", "supplier_type", "paperless_synced"}
	invoiceRow  = []string{
		"id", "supplier", "bill_no", "bill_date", "due_date", "currency",
		"net_total", "tax_total", "grand_total", "document_id",
	}
)

func (f *fixture) expectDocumentAndSupplier() {
	now := time.Now()
	f.sql.ExpectQuery(`FROM paperless_documents WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(documentRow).AddRow(
			7, 70, "Rechnung Oktober", nil, nil, "Purchase Invoice", nil,
			repository.StatusAIResponseReceived, "", nil, invoiceJSON, nil, now, now))
	f.sql.ExpectBegin()
	f.sql.ExpectQuery(`FROM suppliers WHERE name = \$1`).
		WithArgs("MICHAELTELECOM AG").
		WillReturnRows(sqlmock.NewRows(supplierRow).
			AddRow(5, "MICHAELTELECOM AG", nil, repository.DefaultSupplierGroup, repository.DefaultSupplierType, false))
	f.sql.ExpectCommit()
}

// ==========================
// Execute
// ==========================

func TestExecute_CreatesInvoice(t *testing.T) {
	f := newFixture(t, strp(invoiceJSON))
	f.expectDocumentAndSupplier()

	f.sql.ExpectQuery(`FROM purchase_invoices`).
		WithArgs("MICHAELTELECOM AG", "R-2025-001").
		WillReturnRows(sqlmock.NewRows(invoiceRow))
	f.sql.ExpectQuery(`FROM items WHERE code`).
		WithArgs("ROUTER").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "item_group", "uom"}))
	f.sql.ExpectExec(`INSERT INTO items`).
		WithArgs("ROUTER", "Router", repository.DefaultItemGroup, "Nos").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.sql.ExpectBegin()
	f.sql.ExpectQuery(`INSERT INTO purchase_invoices`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	f.sql.ExpectExec(`INSERT INTO purchase_invoice_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.sql.ExpectCommit()
	f.sql.ExpectExec(`UPDATE paperless_documents SET status`).
		WithArgs(int64(7), repository.StatusInvoiceCreated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(e aws.Event) bool {
		return e.Type == aws.EventInvoiceCreated && e.DocumentID == 7 && e.Payload["invoiceId"] == int64(42)
	})).Return(nil).Once()

	out, err := f.handler.Execute(context.Background(), &Input{DocumentID: 7})
	require.NoError(t, err)

	assert.Equal(t, &Output{
		InvoiceID:  42,
		Supplier:   "MICHAELTELECOM AG",
		BillNo:     "R-2025-001",
		BillDate:   "2025-10-30",
		GrandTotal: "119.00",
		Created:    true,
		Status:     repository.StatusInvoiceCreated,
	}, out)
	assert.NoError(t, f.sql.ExpectationsWereMet())
	f.events.AssertExpectations(t)
	f.notifier.AssertNotCalled(t, "NotifyReview", mock.Anything, mock.Anything)
}

func TestExecute_ExistingInvoiceIsNotDuplicated(t *testing.T) {
	f := newFixture(t, strp(invoiceJSON))
	f.expectDocumentAndSupplier()

	f.sql.ExpectQuery(`FROM purchase_invoices`).
		WithArgs("MICHAELTELECOM AG", "R-2025-001").
		WillReturnRows(sqlmock.NewRows(invoiceRow).AddRow(
			42, "MICHAELTELECOM AG", "R-2025-001", time.Date(2025, 10, 30, 0, 0, 0, 0, time.UTC), nil, "EUR",
			"100.00", "19.00", "119.00", 7))
	f.sql.ExpectExec(`UPDATE paperless_documents SET status`).
		WithArgs(int64(7), repository.StatusInvoiceCreated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := f.handler.Execute(context.Background(), &Input{DocumentID: 7})
	require.NoError(t, err)

	assert.False(t, out.Created)
	assert.Equal(t, int64(42), out.InvoiceID)
	assert.NoError(t, f.sql.ExpectationsWereMet())
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestExecute_MissingFieldsRequestReview(t *testing.T) {
	raw := `{"SupplierName": "MICHAELTELECOM AG", "LineItems": []}`
	f := newFixture(t, strp(raw))

	now := time.Now()
	f.sql.ExpectQuery(`FROM paperless_documents WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(documentRow).AddRow(
			7, 70, "Rechnung Oktober", nil, nil, nil, nil,
			repository.StatusAIResponseReceived, "", nil, raw, nil, now, now))

	f.notifier.On("NotifyReview", mock.Anything, aws.ReviewRequest{
		DocumentID:          7,
		PaperlessDocumentID: 70,
		Title:               "Rechnung Oktober",
		MissingFields:       []string{"InvoiceNumber", "InvoiceDate", "LineItems"},
	}).Return(errors.New("ses throttled")).Once()

	_, err := f.handler.Execute(context.Background(), &Input{DocumentID: 7})
	require.Error(t, err)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvoiceValidationFailed, stdErr.Code)
	assert.Equal(t, "InvoiceNumber, InvoiceDate, LineItems", stdErr.Details)
	f.notifier.AssertExpectations(t)
	assert.NoError(t, f.sql.ExpectationsWereMet())
}

func TestExecute_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, strp(invoiceJSON))
	f.expectDocumentAndSupplier()

	f.sql.ExpectQuery(`FROM purchase_invoices`).
		WillReturnRows(sqlmock.NewRows(invoiceRow))
	f.sql.ExpectQuery(`FROM items WHERE code`).
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "item_group", "uom"}).
			AddRow("ROUTER", "Router", repository.DefaultItemGroup, "Nos"))
	f.sql.ExpectBegin()
	f.sql.ExpectQuery(`INSERT INTO purchase_invoices`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	f.sql.ExpectExec(`INSERT INTO purchase_invoice_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.sql.ExpectCommit()
	f.sql.ExpectExec(`UPDATE paperless_documents SET status`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f.events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("sns down")).Once()

	out, err := f.handler.Execute(context.Background(), &Input{DocumentID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(43), out.InvoiceID)
	f.events.AssertExpectations(t)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		aiJSON *string
		code   apperrors.ErrorCode
	}{
		{"no AI response", nil, apperrors.ErrCodeInvalidAIResponse},
		{"not JSON", strp("the invoice is from ACME"), apperrors.ErrCodeInvalidAIResponse},
		{"wrong structure", strp(`{"LineItems": "Router"}`), apperrors.ErrCodeInvalidAIResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.aiJSON)

			_, err := f.handler.Execute(context.Background(), &Input{DocumentID: 7})
			require.Error(t, err)

			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.NoError(t, f.sql.ExpectationsWereMet())
		})
	}
}

func TestExecute_DocumentMissing(t *testing.T) {
	f := newFixture(t, nil)
	f.docs.On("GetDocument", mock.Anything, int64(8)).
		Return(nil, fmt.Errorf("%w: document 8", repository.ErrNotFound))

	_, err := f.handler.Execute(context.Background(), &Input{DocumentID: 8})
	require.Error(t, err)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDocumentNotFound, stdErr.Code)
}
