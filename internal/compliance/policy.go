package compliance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

var (
	// ErrPolicyUnavailable means no policy text can be sent for review
	ErrPolicyUnavailable = errors.New("policy document unavailable")
	// ErrEmptyPolicy means the policy document was read but holds no text
	ErrEmptyPolicy = errors.New("policy document has no text")
)

// Policy is the text of the travel and expense policy
type Policy struct {
	Source string
	Text   string
}

// LoadPolicy reads a policy document. PDFs are read page by page; any other
// file is read as text.
func LoadPolicy(path string) (Policy, error) {
	var (
		text string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err = readPDFText(path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	}
	if err != nil {
		return Policy{}, fmt.Errorf("reading policy %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Policy{}, fmt.Errorf("reading policy %s: %w", path, ErrEmptyPolicy)
	}
	return Policy{Source: path, Text: text}, nil
}

func readPDFText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", page+1, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// PolicySource holds the policy loaded once at start, or the reason it
// could not be loaded.
type PolicySource struct {
	policy Policy
	err    error
}

// LoadPolicySource loads the policy at path. A failed load is kept and
// reported by every later call to Policy.
func LoadPolicySource(path string) *PolicySource {
	if path == "" {
		return &PolicySource{err: errors.New("no policy document configured")}
	}
	policy, err := LoadPolicy(path)
	return &PolicySource{policy: policy, err: err}
}

// StaticPolicySource serves fixed policy text
func StaticPolicySource(text string) *PolicySource {
	text = strings.TrimSpace(text)
	if text == "" {
		return &PolicySource{err: ErrEmptyPolicy}
	}
	return &PolicySource{policy: Policy{Source: "static", Text: text}}
}

// Policy returns the loaded policy or an error wrapping ErrPolicyUnavailable
func (p *PolicySource) Policy() (Policy, error) {
	if p.err != nil {
		return Policy{}, fmt.Errorf("%w: %w", ErrPolicyUnavailable, p.err)
	}
	return p.policy, nil
}

// Err returns the load failure, if any
func (p *PolicySource) Err() error {
	return p.err
}
