package notify

import (
	"context"
	"log"
	"time"
)

// Worker drains the outbox in the background. Failures stay visible in the
// store instead of being dropped on the floor.
type Worker struct {
	store       OutboxStore
	mail        Mailer
	logger      *log.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewWorker(store OutboxStore, mail Mailer, logger *log.Logger) *Worker {
	return &Worker{
		store:       store,
		mail:        mail,
		logger:      logger,
		interval:    5 * time.Second,
		batchSize:   16,
		maxAttempts: 3,
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch delivers one batch of pending notifications. Exposed so tests
// and the ctl can drain without the ticker.
func (w *Worker) ProcessBatch(ctx context.Context) {
	pending, err := w.store.NextPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Printf("outbox read error: %v", err)
		return
	}
	for _, n := range pending {
		if !w.mail.Enabled() {
			// No transport configured; deliver to the log so the intent
			// is still observable, and do not retry forever.
			w.logger.Printf("outbox (mailer disabled) to=%s subject=%q", n.To, n.Subject)
			if err := w.store.MarkSent(ctx, n.ID); err != nil {
				w.logger.Printf("outbox mark sent error: %v", err)
			}
			continue
		}
		if err := w.mail.Send(n.To, n.Subject, n.Body); err != nil {
			final := n.Attempts+1 >= w.maxAttempts
			w.logger.Printf("outbox send error to=%s attempt=%d final=%v: %v", n.To, n.Attempts+1, final, err)
			if err := w.store.MarkFailed(ctx, n.ID, err.Error(), final); err != nil {
				w.logger.Printf("outbox mark failed error: %v", err)
			}
			continue
		}
		if err := w.store.MarkSent(ctx, n.ID); err != nil {
			w.logger.Printf("outbox mark sent error: %v", err)
		}
	}
}
