// internal/erp/details.go
package erp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"paperless-workers/internal/dateextract"

	"github.com/shopspring/decimal"
)

var ErrInvalidJSON = errors.New("INVALID_AI_RESPONSE")

// InvoiceDetails is the structure the AI prompt asks the model to return.
type InvoiceDetails struct {
	SupplierName    string           `json:"SupplierName"`
	SupplierTaxID   string           `json:"SupplierTaxID"`
	ContactPerson   string           `json:"ContactPerson"`
	ContactPhone    string           `json:"ContactPhone"`
	SupplierAddress *SupplierAddress `json:"SupplierAddress"`
	InvoiceNumber   Text             `json:"InvoiceNumber"`
	InvoiceDate     string           `json:"InvoiceDate"`
	DueDate         string           `json:"DueDate"`
	Currency        string           `json:"Currency"`
	NetAmount       Amount           `json:"NetAmount"`
	TaxAmount       Amount           `json:"TaxAmount"`
	TotalAmount     Amount           `json:"TotalAmount"`
	LineItems       []LineItem       `json:"LineItems"`
}

type SupplierAddress struct {
	Street     string `json:"Street"`
	City       string `json:"City"`
	PostalCode Text   `json:"PostalCode"`
	Country    string `json:"Country"`
}

type LineItem struct {
	ItemCode    string `json:"ItemCode"`
	Description string `json:"Description"`
	Quantity    Amount `json:"Quantity"`
	UnitPrice   Amount `json:"UnitPrice"`
	Amount      Amount `json:"Amount"`
}

// ParseInvoiceDetails accepts {"InvoiceDetails": {...}} or the bare object.
func ParseInvoiceDetails(raw string) (*InvoiceDetails, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	body := []byte(raw)
	if inner, ok := envelope["InvoiceDetails"]; ok {
		body = inner
	}

	var d InvoiceDetails
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	d.SupplierName = strings.TrimSpace(d.SupplierName)
	d.ContactPerson = strings.TrimSpace(d.ContactPerson)
	return &d, nil
}

// Text accepts a JSON string or number. Models return invoice numbers and
// postal codes either way.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Amount is a decimal read from a JSON number or a localized string such
// as "1.234,56 EUR". Valid is false for null, empty or unparsable input.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount{}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}

	if v, ok := ParseAmount(s); ok {
		*a = Amount{Value: v, Valid: true}
	}
	return nil
}

// ParseAmount normalizes grouping and decimal separators. When both "."
// and "," occur, the last one is the decimal separator. A separator that
// repeats, or a lone comma followed by exactly three digits, groups
// thousands.
func ParseAmount(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, false
	}

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")
	switch {
	case lastDot < 0 && isGrouping(clean, ","):
		clean = strings.ReplaceAll(clean, ",", "")
	case lastComma < 0 && strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	case lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	v, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func isGrouping(s, sep string) bool {
	switch strings.Count(s, sep) {
	case 0:
		return false
	case 1:
		whole, frac, _ := strings.Cut(s, sep)
		whole = strings.TrimPrefix(whole, "-")
		return len(frac) == 3 && whole != "" && whole != "0"
	default:
		return true
	}
}

// parseDate reads a date in any shape the invoice-date extractor knows.
func parseDate(s string) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	return dateextract.ExtractInvoiceDate(s)
}
