// internal/repository/models.go
package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusNew                = "new"
	StatusAIResponseReceived = "AI-Response-Received"
	StatusInvoiceCreated     = "Invoice-Created"
)

const (
	DefaultSupplierGroup = "All Supplier Groups"
	DefaultSupplierType  = "Company"
	MainAddressTitle     = "Main Address"
	LinkDoctypeSupplier  = "Supplier"
	DefaultItemGroup     = "All Item Groups"
)

type Document struct {
	ID                     int64
	PaperlessDocumentID    int64
	Title                  string
	PaperlessCorrespondent *string
	PaperlessDocumentType  *string
	ERPDoctype             *string
	AIPrompt               *string
	Status                 string
	Fulltext               string
	AIResponse             *string
	AIResponseJSON         *string
	InvoiceDate            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DocumentText is the projection the invoice-date backfill iterates over.
type DocumentText struct {
	ID                  int64
	PaperlessDocumentID int64
	Fulltext            string
}

type Thumbnail struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Prompt struct {
	Name       string
	ForDoctype *string
	Text       string
}

type Supplier struct {
	ID     int64
	Name   string
	TaxID  *string
	Group  string
	Type   string
	Synced bool
}

// Party is a supplier or customer queued for correspondent sync.
type Party struct {
	ID   int64
	Name string
}

type Contact struct {
	ID        int64
	FirstName string
	LastName  string
	Phone     *string
}

type Address struct {
	ID      int64
	Title   string
	Line1   string
	City    string
	Pincode string
	Country *string
}

type Country struct {
	Code string
	Name string
}

type Item struct {
	Code      string
	Name      string
	ItemGroup string
	UOM       string
}

type PurchaseInvoice struct {
	ID         int64
	Supplier   string
	BillNo     string
	BillDate   time.Time
	DueDate    *time.Time
	Currency   string
	NetTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal
	DocumentID *int64
	Items      []PurchaseInvoiceItem
}

type PurchaseInvoiceItem struct {
	Idx         int
	ItemCode    string
	Description string
	Qty         decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}
