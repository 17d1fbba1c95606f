package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/expense-review/internal/report"
)

// ErrSessionNotFound is returned for unknown or expired session IDs
var ErrSessionNotFound = errors.New("session not found")

// IDGenerator generates unique session IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

type sessionEntry struct {
	session  *report.Session
	lastSeen time.Time
}

// Sessions is the registry of live report sessions. A session expires after
// ttl without use; a zero ttl keeps sessions until the process exits.
type Sessions struct {
	mu          sync.Mutex
	entries     map[string]*sessionEntry
	ttl         time.Duration
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewSessions creates a registry with uuid IDs and the wall clock
func NewSessions(ttl time.Duration) *Sessions {
	return NewSessionsWithDeps(ttl, uuidGenerator{}, defaultTimeSource{})
}

// NewSessionsWithDeps creates a registry with custom dependencies for testing
func NewSessionsWithDeps(ttl time.Duration, idGen IDGenerator, timeSrc TimeSource) *Sessions {
	return &Sessions{
		entries:     make(map[string]*sessionEntry),
		ttl:         ttl,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Create starts a new empty session
func (s *Sessions) Create() (string, *report.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idGenerator.Generate()
	session := report.NewSession(s.timeSource)
	s.entries[id] = &sessionEntry{session: session, lastSeen: s.timeSource.Now()}
	return id, session
}

// Get returns the session with id and marks it as used
func (s *Sessions) Get(id string) (*report.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.timeSource.Now()
	if s.expired(entry, now) {
		delete(s.entries, id)
		return nil, ErrSessionNotFound
	}
	entry.lastSeen = now
	return entry.session, nil
}

// Sweep drops expired sessions and returns how many were dropped
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timeSource.Now()
	dropped := 0
	for id, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of sessions held, expired or not
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) expired(entry *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.lastSeen) > s.ttl
}
