package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"project-tasks/internal/notify"
)

var ErrNothingToRemind = errors.New("no unfinished tasks to remind about")

// Service applies the ownership and validation rules in front of a Store.
// Every operation takes the verified identity id; there is no way to reach a
// task through an unscoped id.
type Service struct {
	store  Store
	outbox notify.OutboxStore
	mail   notify.Mailer
	logger *log.Logger
}

func NewService(store Store, outbox notify.OutboxStore, mail notify.Mailer, logger *log.Logger) *Service {
	return &Service{store: store, outbox: outbox, mail: mail, logger: logger}
}

func (s *Service) List(ctx context.Context, owner string) ([]Task, error) {
	return s.store.ListByOwner(ctx, owner)
}

// Create validates the draft, persists the task for owner, and, when the
// task is important, enqueues a notification for ownerEmail. Enqueue failure
// is logged and never rolls back the created task.
func (s *Service) Create(ctx context.Context, owner, ownerEmail string, d Draft) (*Task, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	t := &Task{
		Owner:       owner,
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Date:        strings.TrimSpace(d.Date),
		Important:   d.Important,
		Dir:         d.Dir,
	}
	if t.Dir == "" {
		t.Dir = DefaultDir
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}

	if t.Important && ownerEmail != "" {
		n := &notify.Notification{
			To:      ownerEmail,
			Subject: "Important Task Added",
			Body:    fmt.Sprintf("Your important task %q has been added!", t.Title),
		}
		if err := s.outbox.Enqueue(ctx, n); err != nil {
			s.logger.Printf("outbox enqueue error for task %s: %v", t.ID, err)
		}
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (*Task, error) {
	return s.store.Get(ctx, owner, id)
}

func (s *Service) Update(ctx context.Context, owner, id string, p Patch) (*Task, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, &ValidationError{Field: "title"}
	}
	if p.Date != nil && strings.TrimSpace(*p.Date) == "" {
		return nil, &ValidationError{Field: "date"}
	}
	return s.store.Update(ctx, owner, id, p)
}

func (s *Service) Delete(ctx context.Context, owner, id string) error {
	return s.store.Delete(ctx, owner, id)
}

func (s *Service) DeleteAll(ctx context.Context, owner string) error {
	return s.store.DeleteAllByOwner(ctx, owner)
}

// Remind sends one email listing every incomplete task the owner has. Unlike
// the create-time notification this goes straight through the mailer, so the
// caller learns whether delivery worked.
func (s *Service) Remind(ctx context.Context, owner, email string) error {
	tasks, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return err
	}
	titles := []string{}
	for _, t := range tasks {
		if !t.Completed {
			titles = append(titles, t.Title)
		}
	}
	if len(titles) == 0 {
		return ErrNothingToRemind
	}

	body := "You have the following unfinished tasks: " + strings.Join(titles, ", ")
	if !s.mail.Enabled() {
		s.logger.Printf("reminder for %s (mailer disabled): %s", email, body)
		return nil
	}
	return s.mail.Send(email, "Unfinished Tasks Alert", body)
}
