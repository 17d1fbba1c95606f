package compliance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NoViolation is the policy_violations sentinel for a compliant line item
const NoViolation = "None"

// ErrInvalidResponse means the review service answered with something that
// does not match the response schema.
var ErrInvalidResponse = errors.New("invalid review response")

// ResponseError describes a schema violation in a review response
type ResponseError struct {
	Reason string
	Body   string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidResponse, e.Reason)
}

func (e *ResponseError) Unwrap() error {
	return ErrInvalidResponse
}

// Response is a validated review result
type Response struct {
	LineItems []Finding `json:"line_items"`
}

// Finding is the review of one line item
type Finding struct {
	LineItemNo       int    `json:"line_item_no"`
	PolicyViolations string `json:"policy_violations"`
	Suggestion       string `json:"suggestion,omitempty"`
}

// Violations counts the line items with a violation
func (r *Response) Violations() int {
	n := 0
	for _, f := range r.LineItems {
		if f.HasViolation() {
			n++
		}
	}
	return n
}

// HasViolation reports whether the reviewer found a violation
func (f Finding) HasViolation() bool {
	return !isNone(f.PolicyViolations)
}

type wireResponse struct {
	LineItems *[]wireFinding `json:"line_items"`
}

type wireFinding struct {
	LineItemNo       *int            `json:"line_item_no"`
	PolicyViolations json.RawMessage `json:"policy_violations"`
	Suggestion       *string         `json:"suggestion"`
}

func isNone(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, NoViolation) || strings.EqualFold(s, "null")
}

// DecodeResponse parses and validates a review response for itemCount
// submitted line items. Every line item must be reviewed exactly once; a
// JSON null violation reads as NoViolation; a suggestion must accompany a
// violation and only a violation.
func DecodeResponse(body string, itemCount int) (*Response, error) {
	invalid := func(format string, args ...any) error {
		return &ResponseError{Reason: fmt.Sprintf(format, args...), Body: body}
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &wire); err != nil {
		return nil, invalid("not a JSON object: %v", err)
	}
	if wire.LineItems == nil {
		return nil, invalid("missing line_items")
	}

	seen := make(map[int]bool, itemCount)
	findings := make([]Finding, 0, len(*wire.LineItems))
	for i, w := range *wire.LineItems {
		if w.LineItemNo == nil {
			return nil, invalid("entry %d has no line_item_no", i+1)
		}
		no := *w.LineItemNo
		if no < 1 || no > itemCount {
			return nil, invalid("line_item_no %d out of range 1..%d", no, itemCount)
		}
		if seen[no] {
			return nil, invalid("line_item_no %d reviewed more than once", no)
		}
		seen[no] = true

		violation, err := decodeViolation(w.PolicyViolations)
		if err != nil {
			return nil, invalid("line item %d %v", no, err)
		}
		f := Finding{LineItemNo: no, PolicyViolations: violation}
		if w.Suggestion != nil && !isNone(*w.Suggestion) {
			f.Suggestion = strings.TrimSpace(*w.Suggestion)
		}

		switch {
		case f.HasViolation() && f.Suggestion == "":
			return nil, invalid("line item %d reports a violation without a suggestion", no)
		case !f.HasViolation() && f.Suggestion != "":
			return nil, invalid("line item %d has a suggestion but no violation", no)
		}
		findings = append(findings, f)
	}

	if len(seen) != itemCount {
		return nil, invalid("reviewed %d of %d line items", len(seen), itemCount)
	}

	return &Response{LineItems: findings}, nil
}

// decodeViolation reads policy_violations. The key is required and must be
// non-blank text; JSON null is the only non-text value and reads as NoViolation.
func decodeViolation(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("has no policy_violations")
	}
	if string(raw) == "null" {
		return NoViolation, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", errors.New("has a policy_violations that is not text")
	}
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", errors.New("has an empty policy_violations")
	case isNone(text):
		return NoViolation, nil
	}
	return text, nil
}
