package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store persists tasks. Every read and write is scoped by owner id, so two
// identities cannot see or touch each other's tasks by construction.
type Store interface {
	Insert(ctx context.Context, t *Task) error
	ListByOwner(ctx context.Context, owner string) ([]Task, error)
	Get(ctx context.Context, owner, id string) (*Task, error)
	Update(ctx context.Context, owner, id string, p Patch) (*Task, error)
	Delete(ctx context.Context, owner, id string) error
	DeleteAllByOwner(ctx context.Context, owner string) error
}

// MemoryStore holds tasks in insertion order per owner. It backs tests and
// the storage-free dev mode.
type MemoryStore struct {
	mu      sync.Mutex
	byOwner map[string][]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byOwner: map[string][]Task{}}
}

func (s *MemoryStore) Insert(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.byOwner[t.Owner] = append(s.byOwner[t.Owner], *t)
	return nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, owner string) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.byOwner[owner]...), nil
}

func (s *MemoryStore) Get(_ context.Context, owner, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byOwner[owner] {
		if t.ID == id {
			clone := t
			return &clone, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (s *MemoryStore) Update(_ context.Context, owner, id string, p Patch) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byOwner[owner]
	for i := range list {
		if list[i].ID == id {
			p.apply(&list[i])
			clone := list[i]
			return &clone, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (s *MemoryStore) Delete(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byOwner[owner]
	for i := range list {
		if list[i].ID == id {
			s.byOwner[owner] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}

func (s *MemoryStore) DeleteAllByOwner(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byOwner, owner)
	return nil
}
