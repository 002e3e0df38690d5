package orchestrator

import (
	"errors"
	"sync"
)

// Repository defines the concurrency-safe contract for looking up sessions.
type Repository interface {
	// AddSession stores a new session. ErrSessionExists is returned if the ID is taken.
	AddSession(s *Session) error

	// GetSession returns the session for id.
	GetSession(id SessionID) (*Session, bool)

	// RemoveSession deletes and returns the session for id. Removing an
	// unknown session returns ok == false and is otherwise a no-op.
	RemoveSession(id SessionID) (s *Session, ok bool)

	// Sessions returns every stored session, in no particular order.
	Sessions() []*Session

	// ActiveSessionCount returns the number of stored sessions.
	// Used for metrics.
	ActiveSessionCount() int
}

var (
	// ErrSessionExists is returned when adding a session whose ID is already stored.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// InMemoryRepository is a concurrency-safe in-memory implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// AddSession implements Repository.AddSession.
func (r *InMemoryRepository) AddSession(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.GetSession(s.ID()); exists {
		return ErrSessionExists
	}
	r.store.SetSession(s)
	return nil
}

// GetSession implements Repository.GetSession.
func (r *InMemoryRepository) GetSession(id SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetSession(id)
}

// RemoveSession implements Repository.RemoveSession.
func (r *InMemoryRepository) RemoveSession(id SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.store.GetSession(id)
	if !exists {
		return nil, false
	}
	r.store.DeleteSession(id)
	return s, true
}

// Sessions implements Repository.Sessions.
func (r *InMemoryRepository) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.store.ListSessionIDs()
	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.store.GetSession(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.ListSessionIDs())
}
