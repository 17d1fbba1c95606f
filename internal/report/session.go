package report

import (
	"sync"

	"github.com/zombor/expense-review/internal/receipt"
)

// Session is one user's report: exactly one draft and one store. All
// methods are safe for concurrent use; separate sessions share nothing.
type Session struct {
	mu     sync.Mutex
	store  *Store
	stager *Stager
}

// NewSession creates an empty session
func NewSession(timeSource TimeSource) *Session {
	store := NewStore()
	return &Session{
		store:  store,
		stager: NewStager(store, timeSource),
	}
}

// Populate merges an extracted record into the draft
func (s *Session) Populate(record receipt.Record) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stager.Populate(record)
	return s.stager.Draft()
}

// Edit applies user edits to the draft
func (s *Session) Edit(edits Edits) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stager.Edit(edits)
	return s.stager.Draft()
}

// Commit finalizes the draft into a line item and returns its 1-based position
func (s *Session) Commit(edits Edits) (LineItem, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.stager.Commit(edits)
	return item, s.store.Len()
}

// Draft returns the current draft and its state
func (s *Session) Draft() (Draft, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stager.Draft(), s.stager.State()
}

// LineItems returns every committed item, receipt content included
func (s *Session) LineItems() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// DisplayView returns every committed item without receipt content
func (s *Session) DisplayView() []LineItemView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DisplayView()
}
