package scanning

import (
	"context"
	"time"
)

// Result is the output of a document analysis: zero or more recognized
// documents plus the full recognized text of the input.
type Result struct {
	Content   string
	Documents []Document
}

// FirstDocument returns the first recognized document, if any
func (r *Result) FirstDocument() (*Document, bool) {
	if r == nil || len(r.Documents) == 0 {
		return nil, false
	}
	return &r.Documents[0], true
}

// Document is one recognized receipt
type Document struct {
	DocType string
	Fields  Fields
}

// Fields holds the candidate fields of a receipt. A nil pointer means the
// analyzer did not find the field.
type Fields struct {
	MerchantName    *StringField
	Total           *TextField
	CountryRegion   *CountryRegionField
	MerchantAddress *AddressField
	ArrivalDate     *DateField
	DepartureDate   *DateField
	TransactionDate *DateField
}

// StringField is a field whose value is a plain string
type StringField struct {
	Value string
}

// TextField is a field known only by the text it was recognized from
type TextField struct {
	Content string
}

// CountryRegionField carries a region code and a free-text address, either
// of which may be empty.
type CountryRegionField struct {
	Code    string
	Address string
}

// AddressField is a structured address
type AddressField struct {
	Street        string
	City          string
	State         string
	PostalCode    string
	CountryRegion string
}

// DateField is a date candidate. Value is set when the analyzer produced a
// typed date; Content is the text it was recognized from.
type DateField struct {
	Value   *time.Time
	Content string
}

// Analyzer defines the interface for document analysis operations
type Analyzer interface {
	// Analyze recognizes a receipt image/PDF and returns its candidate fields
	Analyze(ctx context.Context, data []byte, contentType string) (*Result, error)
	// Close closes the analyzer and releases resources
	Close() error
}
