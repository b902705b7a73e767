package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
)

// Identity is a registered user account. PassHash is the encoded argon2id
// string; the raw password is never stored.
type Identity struct {
	ID       string
	Username string
	Email    string
	PassHash string
}

type UserStore interface {
	// Create inserts a new identity and fills in its ID. Returns
	// ErrDuplicateUser when the username or email is already taken.
	Create(ctx context.Context, u *Identity) error
	FindByID(ctx context.Context, id string) (*Identity, error)
	FindByUsername(ctx context.Context, username string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
}

// MemoryUserStore keeps identities in process. It backs tests and the
// storage-free dev mode; the Mongo store is the production implementation.
type MemoryUserStore struct {
	mu         sync.Mutex
	byID       map[string]*Identity
	byUsername map[string]*Identity
	byEmail    map[string]*Identity
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:       map[string]*Identity{},
		byUsername: map[string]*Identity{},
		byEmail:    map[string]*Identity{},
	}
}

func (s *MemoryUserStore) Create(_ context.Context, u *Identity) error {
	if u == nil {
		return errors.New("user is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.byUsername[u.Username]; exists {
		return ErrDuplicateUser
	}
	if _, exists := s.byEmail[email]; exists {
		return ErrDuplicateUser
	}
	u.ID = uuid.NewString()
	u.Email = email
	clone := *u
	s.byID[u.ID] = &clone
	s.byUsername[u.Username] = &clone
	s.byEmail[email] = &clone
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.byID[id])
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.byUsername[username])
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.byEmail[strings.ToLower(strings.TrimSpace(email))])
}

func cloneUser(u *Identity) (*Identity, error) {
	if u == nil {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}
