// Package session provides time-boxed, single-owner, single-consumption storage
// for state that spans several user interactions, such as trade quotes and
// token launch drafts.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a stored entry. Only its owner may consume or update it.
type Session[T any] struct {
	ID        string
	Payload   T
	OwnerID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session[T]) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store keeps sessions of one kind in memory.
// IDs carry the kind as prefix, so IDs of different stores never collide.
type Store[T any] struct {
	kind     string
	mu       sync.Mutex
	sessions map[string]*Session[T]
	now      func() time.Time
	newID    func() (string, error)
}

// StoreOption customizes a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	now   func() time.Time
	newID func() (string, error)
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}

// WithIDGenerator replaces the UUIDv7-based ID suffix generator.
func WithIDGenerator(fnc func() (string, error)) StoreOption {
	return func(o *storeOptions) {
		o.newID = fnc
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewStore creates an empty Store for the given session kind, e.g. "quote" or "launch".
func NewStore[T any](kind string, options ...StoreOption) *Store[T] {
	opts := &storeOptions{
		now:   time.Now,
		newID: newUUIDv7,
	}
	for _, opt := range options {
		opt(opts)
	}

	return &Store[T]{
		kind:     kind,
		sessions: make(map[string]*Session[T]),
		now:      opts.now,
		newID:    opts.newID,
	}
}

// Kind returns the session kind this store holds.
func (s *Store[T]) Kind() string {
	return s.kind
}

// Create stores payload for ownerID and returns the new session ID.
func (s *Store[T]) Create(payload T, ownerID string, ttl time.Duration) (string, error) {
	if ownerID == "" {
		return "", ErrEmptyOwner
	}

	suffix, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s session id: %w", s.kind, err)
	}
	id := s.kind + "_" + suffix

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		return "", fmt.Errorf("duplicated %s session id: %s", s.kind, id)
	}

	now := s.now()
	s.sessions[id] = &Session[T]{
		ID:        id,
		Payload:   payload,
		OwnerID:   ownerID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return id, nil
}

// Get returns a copy of the stored session. Expired sessions that were not swept yet are still returned.
func (s *Store[T]) Get(id string) (Session[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok {
		return Session[T]{}, false
	}
	return *stored, true
}

// lookup must be called with mu held.
func (s *Store[T]) lookup(id string, ownerID string) (*Session[T], error) {
	stored, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	if stored.expired(s.now()) {
		delete(s.sessions, id)
		return nil, ErrExpired
	}

	if stored.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	return stored, nil
}

// Consume removes the session and returns its payload.
// It fails with ErrNotFound, ErrExpired (removing the session) or ErrForbidden (leaving it untouched).
func (s *Store[T]) Consume(id string, ownerID string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.lookup(id, ownerID)
	if err != nil {
		var zero T
		return zero, err
	}

	delete(s.sessions, id)
	return stored.Payload, nil
}

// Peek returns the payload with the same checks as Consume but keeps the session.
func (s *Store[T]) Peek(id string, ownerID string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.lookup(id, ownerID)
	if err != nil {
		var zero T
		return zero, err
	}
	return stored.Payload, nil
}

// Update replaces the payload with the value returned by fnc and moves the expiry to now+ttl.
// Ownership and expiry are checked as in Consume. When fnc fails nothing changes and its error is returned.
func (s *Store[T]) Update(id string, ownerID string, ttl time.Duration, fnc func(T) (T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.lookup(id, ownerID)
	if err != nil {
		return err
	}

	next, err := fnc(stored.Payload)
	if err != nil {
		return err
	}

	stored.Payload = next
	stored.ExpiresAt = s.now().Add(ttl)
	return nil
}

// SweepExpired removes every expired session and returns how many were removed.
func (s *Store[T]) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, stored := range s.sessions {
		if stored.expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not swept yet.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
