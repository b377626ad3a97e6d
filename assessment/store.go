package assessment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("session not found")

// SessionStoreConfig holds configuration for session retention
type SessionStoreConfig struct {
	// TTL is how long an untouched session is kept
	TTL time.Duration

	// CleanupInterval is how often expired sessions are purged
	CleanupInterval time.Duration
}

// DefaultSessionStoreConfig keeps sessions for half an hour of inactivity
func DefaultSessionStoreConfig() SessionStoreConfig {
	return SessionStoreConfig{
		TTL:             30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// SessionStore keeps in-progress questionnaires in memory with expiry.
// Sessions are copied in and out, so callers never share state.
type SessionStore struct {
	cache *gocache.Cache
	ttl   time.Duration

	// mu serializes writers so a read-modify-write in Update is atomic
	mu sync.Mutex
}

// NewSessionStore creates a new session store
func NewSessionStore(cfg SessionStoreConfig) *SessionStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionStoreConfig().TTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultSessionStoreConfig().CleanupInterval
	}
	return &SessionStore{
		cache: gocache.New(cfg.TTL, cfg.CleanupInterval),
		ttl:   cfg.TTL,
	}
}

// Create starts and stores a new session
func (s *SessionStore) Create() *Session {
	sess := NewSession()
	s.cache.Set(sess.ID, sess.Clone(), s.ttl)
	return sess
}

// Get returns a copy of the session with the given id
func (s *SessionStore) Get(id string) (*Session, error) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return v.(*Session).Clone(), nil
}

// Save stores the session, refreshing its expiry
func (s *SessionStore) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.cache.Get(sess.ID); !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sess.ID)
	}
	s.cache.Set(sess.ID, sess.Clone(), s.ttl)
	return nil
}

// Update applies fn to the stored session while holding the write lock, so
// concurrent updates of one session cannot overwrite each other. The result
// is stored even when fn returns an error, which lets a failed stage keep its
// answers. It returns a copy of the stored session and fn's error, or
// ErrSessionNotFound with a nil session.
func (s *SessionStore) Update(id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, found := s.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess := v.(*Session).Clone()
	err := fn(sess)
	s.cache.Set(id, sess.Clone(), s.ttl)
	return sess, err
}

// Delete removes the session
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.cache.Get(id); !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.cache.Delete(id)
	return nil
}

// Len returns the number of live sessions. Items skips expired entries that
// the janitor has not purged yet.
func (s *SessionStore) Len() int {
	return len(s.cache.Items())
}
