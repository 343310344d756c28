// internal/legacyimport/mapping.go

// Package legacyimport maps records exported from the old document archive
// onto Paperless custom fields.
package legacyimport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Record map[string]interface{}

const (
	TypeField        = "Type"
	TypeIncoming     = "Eingangsrechnung"
	TypeOutgoing     = "Ausgangsrechnung"
	directionIn      = "eingehend"
	directionOut     = "ausgehend"
	documentKindBill = "Rechnung"
)

// FieldMapping pairs Paperless field names with archive field names, in
// output order.
var FieldMapping = []struct {
	Paperless string
	Archive   string
	Amount    bool
}{
	{"Belegdatum", "BelegDatum", false},
	{"Belegnummer", "BelegNr", false},
	{"Ausgeblendet", "isHidden", false},
	{"Richtung", "Richtung", false},
	{"Belegart", "Belegart", false},
	{"Konto", "Erlöskonto", false},
	{"Zahlstatus", "ZahlStatus", false},
	{"Zahlungsart", "Zahlungsart", false},
	{"Zahltage", "Zahltage", false},
	{"Steuer-Betrag", "Ust", true},
	{"Netto-Betrag", "NettoBeleg", true},
	{"Adress-Ort", "AdressOrt", false},
	{"Adress-PLZ", "AdressPLZ", false},
	{"Adress-Name", "AdressName", false},
	{"Inoxision UID", "UID", false},
	{"Inoxision Erstelldatum", "CreationDate", false},
	{"Inoxision Archivar", "Username", false},
}

// Map converts one archive record. Fields missing from rec are left out.
// Amounts that cannot be read as decimals are an error.
func Map(rec Record) (Record, error) {
	out := Record{}
	if t := documentType(rec); t != "" {
		out[TypeField] = t
	}

	for _, f := range FieldMapping {
		v, ok := rec[f.Archive]
		if !ok {
			continue
		}
		if f.Amount && v != nil {
			d, err := toDecimal(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Archive, err)
			}
			out[f.Paperless] = d
			continue
		}
		out[f.Paperless] = v
	}
	return out, nil
}

func documentType(rec Record) string {
	direction, _ := rec["Richtung"].(string)
	kind, _ := rec["Belegart"].(string)
	if kind != documentKindBill {
		return ""
	}
	switch direction {
	case directionIn:
		return TypeIncoming
	case directionOut:
		return TypeOutgoing
	}
	return ""
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		s := strings.TrimSpace(n)
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
		return decimal.NewFromString(s)
	}
	return decimal.Zero, fmt.Errorf("unsupported amount %v (%T)", v, v)
}
