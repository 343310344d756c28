// internal/erp/invoice.go
package erp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/repository"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "EUR"

// MissingFieldsError lists the mandatory invoice fields the AI answer
// lacks. It is terminal: retrying cannot fill them in.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing mandatory invoice fields: " + strings.Join(e.Fields, ", ")
}

type InvoiceStore interface {
	GetDocument(ctx context.Context, id int64) (*repository.Document, error)
	FindItemByCode(ctx context.Context, code string) (*repository.Item, error)
	InsertItem(ctx context.Context, it repository.Item) (*repository.Item, error)
	FindPurchaseInvoice(ctx context.Context, supplier, billNo string) (*repository.PurchaseInvoice, error)
	InsertPurchaseInvoice(ctx context.Context, inv *repository.PurchaseInvoice) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type InvoiceResult struct {
	InvoiceID  int64
	Supplier   string
	BillNo     string
	BillDate   time.Time
	GrandTotal decimal.Decimal
	Created    bool
}

type InvoiceService struct {
	store     InvoiceStore
	suppliers *SupplierService
	logger    logger.Logger
}

func NewInvoiceService(store InvoiceStore, suppliers *SupplierService, log logger.Logger) *InvoiceService {
	return &InvoiceService{store: store, suppliers: suppliers, logger: log}
}

// Create books d as a purchase invoice for the document. An invoice that
// already exists for the same supplier and bill number is returned as is.
func (s *InvoiceService) Create(ctx context.Context, documentID int64, d *InvoiceDetails) (*InvoiceResult, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	inv, err := BuildInvoice(d, doc.InvoiceDate)
	if err != nil {
		return nil, err
	}
	inv.DocumentID = &doc.ID

	supplier, err := s.suppliers.Upsert(ctx, d)
	if err != nil {
		return nil, err
	}
	inv.Supplier = supplier.Supplier.Name

	existing, err := s.store.FindPurchaseInvoice(ctx, inv.Supplier, inv.BillNo)
	if err != nil {
		return nil, err
	}

	result := &InvoiceResult{
		Supplier:   inv.Supplier,
		BillNo:     inv.BillNo,
		BillDate:   inv.BillDate,
		GrandTotal: inv.GrandTotal,
	}

	if existing != nil {
		s.logger.Info("purchase invoice already exists", map[string]interface{}{
			"invoiceId": existing.ID,
			"supplier":  existing.Supplier,
			"billNo":    existing.BillNo,
		})
		result.InvoiceID = existing.ID
		result.GrandTotal = existing.GrandTotal
	} else {
		if err := s.ensureItems(ctx, inv.Items); err != nil {
			return nil, err
		}
		if result.InvoiceID, err = s.store.InsertPurchaseInvoice(ctx, inv); err != nil {
			return nil, err
		}
		result.Created = true
	}

	if err := s.store.UpdateStatus(ctx, documentID, repository.StatusInvoiceCreated); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *InvoiceService) ensureItems(ctx context.Context, items []repository.PurchaseInvoiceItem) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ItemCode] {
			continue
		}
		seen[it.ItemCode] = true

		existing, err := s.store.FindItemByCode(ctx, it.ItemCode)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := s.store.InsertItem(ctx, repository.Item{Code: it.ItemCode, Name: truncate(it.Description, 140)}); err != nil {
			return err
		}
	}
	return nil
}

// BuildInvoice validates d and converts it into an invoice without
// supplier. fallbackDate fills a missing or unreadable InvoiceDate.
func BuildInvoice(d *InvoiceDetails, fallbackDate *time.Time) (*repository.PurchaseInvoice, error) {
	var missing []string

	if d.SupplierName == "" {
		missing = append(missing, "SupplierName")
	}
	billNo := d.InvoiceNumber.String()
	if billNo == "" {
		missing = append(missing, "InvoiceNumber")
	}

	billDate, ok := parseDate(d.InvoiceDate)
	if !ok && fallbackDate != nil {
		billDate, ok = *fallbackDate, true
	}
	if !ok {
		missing = append(missing, "InvoiceDate")
	}

	items := buildItems(d.LineItems)
	if len(items) == 0 {
		missing = append(missing, "LineItems")
	}

	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	inv := &repository.PurchaseInvoice{
		BillNo:   billNo,
		BillDate: billDate,
		Currency: strings.ToUpper(strings.TrimSpace(d.Currency)),
		Items:    items,
	}
	if inv.Currency == "" {
		inv.Currency = DefaultCurrency
	}
	if due, ok := parseDate(d.DueDate); ok {
		inv.DueDate = &due
	}

	net := decimal.Zero
	for _, it := range items {
		net = net.Add(it.Amount)
	}
	if d.NetAmount.Valid {
		net = d.NetAmount.Value
	}
	tax := decimal.Zero
	if d.TaxAmount.Valid {
		tax = d.TaxAmount.Value
	}
	grand := net.Add(tax)
	if d.TotalAmount.Valid {
		grand = d.TotalAmount.Value
	}

	inv.NetTotal = net.Round(2)
	inv.TaxTotal = tax.Round(2)
	inv.GrandTotal = grand.Round(2)
	return inv, nil
}

func buildItems(lines []LineItem) []repository.PurchaseInvoiceItem {
	var items []repository.PurchaseInvoiceItem
	for _, l := range lines {
		desc := strings.TrimSpace(l.Description)
		if desc == "" || !l.Amount.Valid {
			continue
		}

		qty := decimal.NewFromInt(1)
		if l.Quantity.Valid && !l.Quantity.Value.IsZero() {
			qty = l.Quantity.Value
		}
		rate := l.Amount.Value.Div(qty)
		if l.UnitPrice.Valid {
			rate = l.UnitPrice.Value
		}

		code := strings.TrimSpace(l.ItemCode)
		if code == "" {
			code = ItemCodeFor(desc)
		}

		items = append(items, repository.PurchaseInvoiceItem{
			Idx:         len(items) + 1,
			ItemCode:    code,
			Description: desc,
			Qty:         qty,
			Rate:        rate.Round(4),
			Amount:      l.Amount.Value.Round(2),
		})
	}
	return items
}

var nonCode = regexp.MustCompile(`[^A-Z0-9]+`)

// ItemCodeFor derives a stable item code from a line description.
func ItemCodeFor(desc string) string {
	code := strings.Trim(nonCode.ReplaceAllString(strings.ToUpper(desc), "-"), "-")
	if code == "" {
		return "MISC"
	}
	return truncate(code, 60)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), "-")
}

func (r *InvoiceResult) Summary() string {
	return fmt.Sprintf("%s/%s %s", r.Supplier, r.BillNo, r.GrandTotal.StringFixed(2))
}
