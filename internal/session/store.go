package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a session id does not resolve or has
// expired. Interaction endpoints translate it to success:false, never to a
// request failure.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session ledgers. Expiry is store-defined; a missing or
// expired key is simply "no valid session".
type Store interface {
	// Get retrieves a session's ledger. Returns ErrSessionNotFound if the
	// session does not exist or has expired.
	Get(ctx context.Context, id string) (*Ledger, error)

	// Save writes a ledger back without extending its lifetime.
	Save(ctx context.Context, id string, l *Ledger) error

	// Create stores a fresh ledger with the store's configured lifetime.
	// Called by edge plumbing only; the interaction core never creates.
	Create(ctx context.Context, id string, l *Ledger) error

	// Valid reports whether the session exists and has not expired.
	Valid(ctx context.Context, id string) (bool, error)
}

// InMemoryStore is an in-memory Store used by tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*memSession
	now      func() time.Time
}

type memSession struct {
	ledger  Ledger
	expires time.Time
}

// NewInMemoryStore creates an in-memory store with the given lifetime.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memSession),
		now:      time.Now,
	}
}

func (s *InMemoryStore) live(id string) (*memSession, bool) {
	sess, ok := s.sessions[id]
	if !ok || s.now().After(sess.expires) {
		return nil, false
	}
	return sess, true
}

// Get retrieves a session's ledger.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.live(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	dup := sess.ledger
	dup.Impressions = append([]Impression(nil), sess.ledger.Impressions...)
	dup.Likes = append([]string(nil), sess.ledger.Likes...)
	return &dup, nil
}

// Save writes a ledger back, keeping the existing expiry.
func (s *InMemoryStore) Save(ctx context.Context, id string, l *Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess.ledger = *l
	sess.ledger.Impressions = append([]Impression(nil), l.Impressions...)
	sess.ledger.Likes = append([]string(nil), l.Likes...)
	return nil
}

// Create stores a fresh ledger with the configured lifetime.
func (s *InMemoryStore) Create(ctx context.Context, id string, l *Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := *l
	dup.Impressions = append([]Impression(nil), l.Impressions...)
	dup.Likes = append([]string(nil), l.Likes...)
	s.sessions[id] = &memSession{ledger: dup, expires: s.now().Add(s.ttl)}
	return nil
}

// Valid reports whether the session exists and has not expired.
func (s *InMemoryStore) Valid(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.live(id)
	return ok, nil
}
