package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the display form of calendar dates
const DateLayout = "2006-01-02"

// Record is the canonical receipt produced from one analysis result. It is
// passed by value and never changed after Normalize returns it.
type Record struct {
	MerchantName    string         `json:"merchant_name"`
	EstimatedAmount Amount         `json:"estimated_amount"`
	ZipCode         string         `json:"zip_code"`
	LodgingLocation string         `json:"lodging_location"`
	CheckIn         DateResolution `json:"check_in"`
	CheckOut        DateResolution `json:"check_out"`
	RawContent      string         `json:"-"`
}

// AmountKind tells which representation an Amount carries
type AmountKind int

const (
	// AmountParsed is a numeric amount
	AmountParsed AmountKind = iota
	// AmountRaw is text as recognized or typed, never parsed
	AmountRaw
)

// Amount is either raw text or a parsed number. The zero value is a parsed zero.
type Amount struct {
	kind  AmountKind
	raw   string
	value decimal.Decimal
}

// RawAmount wraps text exactly as it was recognized or entered
func RawAmount(text string) Amount {
	return Amount{kind: AmountRaw, raw: text}
}

// ParsedAmount wraps a number
func ParsedAmount(v decimal.Decimal) Amount {
	return Amount{kind: AmountParsed, value: v}
}

// ZeroAmount is the amount of a receipt with no total
func ZeroAmount() Amount {
	return ParsedAmount(decimal.Zero)
}

// Kind returns the representation carried
func (a Amount) Kind() AmountKind {
	return a.kind
}

// Raw returns the text for raw amounts
func (a Amount) Raw() (string, bool) {
	return a.raw, a.kind == AmountRaw
}

// Parsed returns the number for parsed amounts
func (a Amount) Parsed() (decimal.Decimal, bool) {
	return a.value, a.kind == AmountParsed
}

// Decimal returns a numeric reading of the amount. Raw text is read
// leniently (currency symbols, spaces and thousands separators dropped); ok
// is false when no number can be read. Nothing rejects an amount on this basis.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	if a.kind == AmountParsed {
		return a.value, true
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, a.raw)
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// String returns the raw text, or the decimal form of a parsed amount
func (a Amount) String() string {
	if a.kind == AmountRaw {
		return a.raw
	}
	return a.value.String()
}

// MarshalJSON writes raw amounts as JSON strings and parsed amounts as numbers
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.kind == AmountRaw {
		return json.Marshal(a.raw)
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON reads a JSON string as raw text and a JSON number as parsed
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ZeroAmount()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = RawAmount(text)
		return nil
	}
	v, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*a = ParsedAmount(v)
	return nil
}

// DateKind tells whether a date candidate resolved
type DateKind int

const (
	// DateAbsent means no candidate was present
	DateAbsent DateKind = iota
	// DateResolved means the candidate is a calendar date
	DateResolved
	// DateUnparsed means the candidate was present but is not a date
	DateUnparsed
)

// DateResolution is the outcome of coercing a date candidate
type DateResolution struct {
	kind DateKind
	date time.Time
	raw  string
}

// Absent is the resolution of a missing candidate
func Absent() DateResolution {
	return DateResolution{}
}

// Resolved holds the calendar day of t
func Resolved(t time.Time) DateResolution {
	y, m, d := t.Date()
	return DateResolution{kind: DateResolved, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Unparsed keeps a candidate that could not be read as a date
func Unparsed(raw string) DateResolution {
	return DateResolution{kind: DateUnparsed, raw: raw}
}

// Kind returns the resolution kind
func (d DateResolution) Kind() DateKind {
	return d.kind
}

// IsResolved reports whether the resolution holds a usable date
func (d DateResolution) IsResolved() bool {
	return d.kind == DateResolved
}

// Date returns the resolved date
func (d DateResolution) Date() (time.Time, bool) {
	return d.date, d.kind == DateResolved
}

// Raw returns the unparsed text
func (d DateResolution) Raw() string {
	return d.raw
}

// String returns YYYY-MM-DD for resolved dates, the raw text for unparsed
// ones and "" when absent.
func (d DateResolution) String() string {
	switch d.kind {
	case DateResolved:
		return d.date.Format(DateLayout)
	case DateUnparsed:
		return d.raw
	default:
		return ""
	}
}

// MarshalJSON writes absent dates as null and everything else as a string
func (d DateResolution) MarshalJSON() ([]byte, error) {
	if d.kind == DateAbsent {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
