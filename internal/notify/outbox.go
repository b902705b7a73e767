package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Notification is a delivery intent. It is enqueued in the same logical step
// as the write that caused it and delivered out-of-band by the Worker, so a
// slow or failing mail server never extends or fails the parent request.
type Notification struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type OutboxStore interface {
	Enqueue(ctx context.Context, n *Notification) error
	// NextPending returns up to limit pending notifications, oldest first.
	NextPending(ctx context.Context, limit int) ([]Notification, error)
	MarkSent(ctx context.Context, id string) error
	// MarkFailed records a delivery failure; final retires the entry.
	MarkFailed(ctx context.Context, id, errMsg string, final bool) error
}

type MemoryOutbox struct {
	mu      sync.Mutex
	entries []Notification
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (s *MemoryOutbox) Enqueue(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	n.Status = StatusPending
	n.CreatedAt = time.Now()
	s.entries = append(s.entries, *n)
	return nil
}

func (s *MemoryOutbox) NextPending(_ context.Context, limit int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Notification{}
	for _, e := range s.entries {
		if e.Status == StatusPending {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryOutbox) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = StatusSent
			return nil
		}
	}
	return nil
}

func (s *MemoryOutbox) MarkFailed(_ context.Context, id, errMsg string, final bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Attempts++
			s.entries[i].LastError = errMsg
			if final {
				s.entries[i].Status = StatusFailed
			}
			return nil
		}
	}
	return nil
}

// All returns a snapshot of every entry, for tests and inspection.
func (s *MemoryOutbox) All() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.entries...)
}
