package compliance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zombor/expense-review/internal/report"
)

// RoleSystem is the chat role every segment is sent with
const RoleSystem = "system"

const (
	policyPreamble      = "Given to you is the travel manual with all the policies related to submitting expenses: "
	reviewerInstruction = "You need to act as a policy violation checker. We will provide you with the line items of an expense report; check each of them against the policies above and report any possible policy violations."
	suggestionRequest   = "Along with the policy violations, get back to the user with suggestions on how to resolve them."
	lineItemsPreamble   = "Here are the line items: "
)

// responseFormatInstruction describes the shape DecodeResponse accepts
const responseFormatInstruction = `Always respond in JSON format with exactly this structure:
{"line_items": [{"line_item_no": 1, "policy_violations": "description of the violation, or ` + NoViolation + ` if there is no violation", "suggestion": "how to resolve the violation"}]}
Rules:
- Return one entry per line item; line_item_no is the 1-based position of the line item as provided
- policy_violations must be "` + NoViolation + `" when the line item complies with the policies
- Include suggestion only when policy_violations is not "` + NoViolation + `"`

// Segment is one instruction sent to the review service
type Segment struct {
	Role    string
	Content string
}

// Request is an assembled compliance review request
type Request struct {
	Segments  []Segment
	ItemCount int
}

// numberedItem is a line item as the reviewer sees it
type numberedItem struct {
	LineItemNo int `json:"line_item_no"`
	report.LineItem
}

// BuildRequest combines the policy text and every committed line item,
// receipt content included, into one review request.
func BuildRequest(policy Policy, items []report.LineItem) (*Request, error) {
	if strings.TrimSpace(policy.Text) == "" {
		return nil, fmt.Errorf("building review request: %w", ErrPolicyUnavailable)
	}

	serialized, err := serializeLineItems(items)
	if err != nil {
		return nil, err
	}

	return &Request{
		Segments: []Segment{
			{Role: RoleSystem, Content: policyPreamble + policy.Text},
			{Role: RoleSystem, Content: reviewerInstruction},
			{Role: RoleSystem, Content: suggestionRequest},
			{Role: RoleSystem, Content: lineItemsPreamble + serialized},
			{Role: RoleSystem, Content: responseFormatInstruction},
		},
		ItemCount: len(items),
	}, nil
}

func serializeLineItems(items []report.LineItem) (string, error) {
	numbered := make([]numberedItem, 0, len(items))
	for i, item := range items {
		numbered = append(numbered, numberedItem{LineItemNo: i + 1, LineItem: item})
	}
	// Receipt text goes to the reviewer verbatim, without HTML escapes
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(numbered); err != nil {
		return "", fmt.Errorf("serializing line items: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
