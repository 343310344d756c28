// internal/common/validation/invoice.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// invoiceDetailsSchema checks the structure of an AI answer. Mandatory
// business fields are checked by the ERP service so they can be reported
// by name.
const invoiceDetailsSchema = `{
  "type": "object",
  "properties": {
    "SupplierName":   {"type": ["string", "null"]},
    "SupplierTaxID":  {"type": ["string", "null"]},
    "ContactPerson":  {"type": ["string", "null"]},
    "ContactPhone":   {"type": ["string", "null"]},
    "InvoiceNumber":  {"type": ["string", "number", "null"]},
    "InvoiceDate":    {"type": ["string", "null"]},
    "DueDate":        {"type": ["string", "null"]},
    "Currency":       {"type": ["string", "null"], "maxLength": 3},
    "NetAmount":      {"type": ["string", "number", "null"]},
    "TaxAmount":      {"type": ["string", "number", "null"]},
    "TotalAmount":    {"type": ["string", "number", "null"]},
    "SupplierAddress": {
      "type": ["object", "null"],
      "properties": {
        "Street":     {"type": ["string", "null"]},
        "City":       {"type": ["string", "null"]},
        "PostalCode": {"type": ["string", "number", "null"]},
        "Country":    {"type": ["string", "null"]}
      }
    },
    "LineItems": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "ItemCode":    {"type": ["string", "null"]},
          "Description": {"type": ["string", "null"]},
          "Quantity":    {"type": ["string", "number", "null"]},
          "UnitPrice":   {"type": ["string", "number", "null"]},
          "Amount":      {"type": ["string", "number", "null"]}
        }
      }
    }
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r *ValidationResult) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(invoiceDetailsSchema))
	})
	return schema, schemaErr
}

// ValidateInvoiceDetails validates raw AI JSON, wrapped in an
// "InvoiceDetails" object or bare. Malformed JSON is an error; schema
// violations are reported in the result.
func ValidateInvoiceDetails(raw string) (*ValidationResult, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if inner, ok := doc["InvoiceDetails"]; ok {
		m, ok := inner.(map[string]interface{})
		if !ok {
			return &ValidationResult{Errors: []ValidationError{{
				Field: "InvoiceDetails", Message: "must be an object",
			}}}, nil
		}
		doc = m
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile invoice schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{Field: e.Field(), Message: e.Description()})
	}
	return out, nil
}
