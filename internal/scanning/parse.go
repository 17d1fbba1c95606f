package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// receiptAnalysisPrompt is the shared prompt used by all LLM providers for analyzing receipts
const receiptAnalysisPrompt = `You are analyzing a receipt, invoice or hotel folio. Carefully read all text in the image and report what you find.

Return ONLY valid JSON in this exact format:
{
  "content": "every line of text you can read on the document, in reading order, separated by \n",
  "documents": [
    {
      "doc_type": "receipt",
      "merchant_name": "Business name as printed",
      "total": "final total exactly as printed, e.g. 250.00",
      "country_region": {"code": "ISO 3166 alpha-2 code or empty", "address": "free-text location or empty"},
      "merchant_address": {"street": "", "city": "", "state": "", "postal_code": "", "country_region": ""},
      "arrival_date": {"value": "YYYY-MM-DD", "content": "date as printed"},
      "departure_date": {"value": "YYYY-MM-DD", "content": "date as printed"},
      "transaction_date": {"value": "YYYY-MM-DD", "content": "date as printed"}
    }
  ]
}

Important:
- "content" must always be present, even when the image is not a receipt
- If the image is not a receipt, return an empty "documents" array
- Use null for any field you cannot find; never guess
- arrival_date and departure_date are check-in and check-out dates on lodging folios
- transaction_date is the purchase or invoice date
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

type wireResult struct {
	Content   string         `json:"content"`
	Documents []wireDocument `json:"documents"`
}

type wireDocument struct {
	DocType         string             `json:"doc_type"`
	MerchantName    *string            `json:"merchant_name"`
	Total           *string            `json:"total"`
	CountryRegion   *wireCountryRegion `json:"country_region"`
	MerchantAddress *wireAddress       `json:"merchant_address"`
	ArrivalDate     *wireDate          `json:"arrival_date"`
	DepartureDate   *wireDate          `json:"departure_date"`
	TransactionDate *wireDate          `json:"transaction_date"`
}

type wireCountryRegion struct {
	Code    string `json:"code"`
	Address string `json:"address"`
}

type wireAddress struct {
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	CountryRegion string `json:"country_region"`
}

type wireDate struct {
	Value   string `json:"value"`
	Content string `json:"content"`
}

// extractJSONObject strips code fences and returns the outermost JSON object in text
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("invalid JSON object in response")
	}

	return text[startIdx : endIdx+1], nil
}

// parseAnalysisJSON parses the JSON response of an LLM analyzer into a Result
func parseAnalysisJSON(text string) (*Result, error) {
	text, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result := &Result{
		Content:   wire.Content,
		Documents: make([]Document, 0, len(wire.Documents)),
	}
	for _, d := range wire.Documents {
		result.Documents = append(result.Documents, d.toDocument())
	}
	return result, nil
}

func (d wireDocument) toDocument() Document {
	doc := Document{DocType: strings.TrimSpace(d.DocType)}

	if d.MerchantName != nil {
		doc.Fields.MerchantName = &StringField{Value: strings.TrimSpace(*d.MerchantName)}
	}
	if d.Total != nil {
		doc.Fields.Total = &TextField{Content: strings.TrimSpace(*d.Total)}
	}
	if d.CountryRegion != nil {
		doc.Fields.CountryRegion = &CountryRegionField{
			Code:    strings.TrimSpace(d.CountryRegion.Code),
			Address: strings.TrimSpace(d.CountryRegion.Address),
		}
	}
	if d.MerchantAddress != nil {
		doc.Fields.MerchantAddress = &AddressField{
			Street:        strings.TrimSpace(d.MerchantAddress.Street),
			City:          strings.TrimSpace(d.MerchantAddress.City),
			State:         strings.TrimSpace(d.MerchantAddress.State),
			PostalCode:    strings.TrimSpace(d.MerchantAddress.PostalCode),
			CountryRegion: strings.TrimSpace(d.MerchantAddress.CountryRegion),
		}
	}
	doc.Fields.ArrivalDate = d.ArrivalDate.toField()
	doc.Fields.DepartureDate = d.DepartureDate.toField()
	doc.Fields.TransactionDate = d.TransactionDate.toField()
	return doc
}

// toField keeps the printed text as Content and only promotes Value to a
// typed date when the model returned a well-formed YYYY-MM-DD.
func (w *wireDate) toField() *DateField {
	if w == nil {
		return nil
	}
	field := &DateField{Content: strings.TrimSpace(w.Content)}
	if v := strings.TrimSpace(w.Value); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			field.Value = &d
		} else if field.Content == "" {
			field.Content = v
		}
	}
	if field.Value == nil && field.Content == "" {
		return nil
	}
	return field
}
