package appointments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists appointments
type Store interface {
	// Add assigns an ID and creation time when missing and stores the appointment
	Add(ctx context.Context, a *Appointment) error

	// Get an appointment by ID; ErrNotFound when it does not exist
	Get(ctx context.Context, id string) (*Appointment, error)

	// List all appointments, newest first
	List(ctx context.Context) ([]*Appointment, error)
}

// prepare fills the server-assigned fields
func prepare(a *Appointment) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// InMemoryStore implements Store using a map; used when no database is configured
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Appointment
	order []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		items: make(map[string]*Appointment),
	}
}

func (s *InMemoryStore) Add(_ context.Context, a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(a)
	if _, exists := s.items[a.ID]; exists {
		return fmt.Errorf("appointment with ID %s already exists", a.ID)
	}

	s.items[a.ID] = a.clone()
	s.order = append(s.order, a.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.items[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a.clone(), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Appointment, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.items[s.order[i]].clone())
	}
	return out, nil
}
