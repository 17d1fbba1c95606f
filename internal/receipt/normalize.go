package receipt

import "github.com/zombor/expense-review/internal/scanning"

// Normalize builds the canonical record for an analysis result. It never
// fails: missing fields take their defaults, and RawContent always carries
// the whole-document text even when no document was recognized.
func Normalize(result *scanning.Result) Record {
	record := Record{
		EstimatedAmount: ZeroAmount(),
	}
	if result == nil {
		return record
	}
	record.RawContent = result.Content

	doc, ok := result.FirstDocument()
	if !ok {
		return record
	}
	fields := doc.Fields

	record.MerchantName = ResolveMerchantName(fields.MerchantName)
	record.EstimatedAmount = ResolveAmount(fields.Total)
	record.LodgingLocation = ResolveLodgingLocation(fields.CountryRegion)
	record.ZipCode = ResolveZipCode(fields.MerchantAddress)
	record.CheckIn, record.CheckOut = ResolveStay(
		CoerceDate(fields.ArrivalDate),
		CoerceDate(fields.DepartureDate),
		CoerceDate(fields.TransactionDate),
	)

	return record
}
