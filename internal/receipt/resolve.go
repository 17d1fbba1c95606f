package receipt

import (
	"strings"
	"time"

	"github.com/zombor/expense-review/internal/scanning"
)

// isoLayouts are the ISO-8601 forms accepted for untyped date text
var isoLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"20060102",
}

// ResolveMerchantName returns the merchant name, or "" when the field is missing
func ResolveMerchantName(f *scanning.StringField) string {
	if f == nil {
		return ""
	}
	return f.Value
}

// ResolveAmount returns the recognized total text verbatim. A missing or
// empty total is a parsed zero.
func ResolveAmount(f *scanning.TextField) Amount {
	if f == nil || f.Content == "" {
		return ZeroAmount()
	}
	return RawAmount(f.Content)
}

// ResolveLodgingLocation concatenates region code and address with no
// separator, or returns whichever one is present.
func ResolveLodgingLocation(f *scanning.CountryRegionField) string {
	if f == nil {
		return ""
	}
	return f.Code + f.Address
}

// ResolveZipCode returns the postal code of the merchant address
func ResolveZipCode(f *scanning.AddressField) string {
	if f == nil {
		return ""
	}
	return f.PostalCode
}

// CoerceDate converts a date candidate. A typed value is used as is;
// otherwise the text is read as ISO-8601. Text that is not a date comes back
// as Unparsed so callers can see it without mistaking it for a date.
func CoerceDate(f *scanning.DateField) DateResolution {
	if f == nil {
		return Absent()
	}
	if f.Value != nil {
		return Resolved(*f.Value)
	}
	return ParseDate(f.Content)
}

// ParseDate reads free text as an ISO-8601 date. Blank text is absent and
// anything else that does not parse is kept as Unparsed.
func ParseDate(text string) DateResolution {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Absent()
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Resolved(t)
		}
	}
	return Unparsed(text)
}

// ResolveStay picks check-in and check-out. Arrival and departure are used
// together only when both resolved; otherwise a resolved transaction date
// fills both; otherwise both are absent.
func ResolveStay(arrival, departure, transaction DateResolution) (checkIn, checkOut DateResolution) {
	if arrival.IsResolved() && departure.IsResolved() {
		return arrival, departure
	}
	if transaction.IsResolved() {
		return transaction, transaction
	}
	return Absent(), Absent()
}
