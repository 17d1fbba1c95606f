package report

// Store is the append-only, ordered list of committed line items of one session
type Store struct {
	items []LineItem
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{}
}

// Append adds item at the end
func (s *Store) Append(item LineItem) {
	s.items = append(s.items, item)
}

// Len returns the number of committed items
func (s *Store) Len() int {
	return len(s.items)
}

// All returns a copy of every item, receipt content included
func (s *Store) All() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// DisplayView returns every item without its receipt content
func (s *Store) DisplayView() []LineItemView {
	out := make([]LineItemView, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.View())
	}
	return out
}
