package notify

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	enabled bool
	fail    int // fail the first n sends
	sent    []string
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.fail > 0 {
		f.fail--
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestWorkerDeliversPending(t *testing.T) {
	ctx := context.Background()
	box := NewMemoryOutbox()
	mail := &fakeMailer{enabled: true}
	w := NewWorker(box, mail, testLogger())

	require.NoError(t, box.Enqueue(ctx, &Notification{To: "a@x.com", Subject: "Important Task Added", Body: "b"}))
	w.ProcessBatch(ctx)

	require.Len(t, mail.sent, 1)
	entries := box.All()
	require.Len(t, entries, 1)
	require.Equal(t, StatusSent, entries[0].Status)
}

func TestWorkerRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	box := NewMemoryOutbox()
	mail := &fakeMailer{enabled: true, fail: 10}
	w := NewWorker(box, mail, testLogger())

	require.NoError(t, box.Enqueue(ctx, &Notification{To: "a@x.com", Subject: "s", Body: "b"}))

	// Two failing attempts leave the entry pending and retryable.
	w.ProcessBatch(ctx)
	w.ProcessBatch(ctx)
	entries := box.All()
	require.Equal(t, StatusPending, entries[0].Status)
	require.Equal(t, 2, entries[0].Attempts)
	require.NotEmpty(t, entries[0].LastError)

	// The third attempt retires it.
	w.ProcessBatch(ctx)
	entries = box.All()
	require.Equal(t, StatusFailed, entries[0].Status)
	require.Equal(t, 3, entries[0].Attempts)

	// Retired entries are not picked up again.
	pending, err := box.NextPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestWorkerWithDisabledMailerLogsAndRetires(t *testing.T) {
	ctx := context.Background()
	box := NewMemoryOutbox()
	w := NewWorker(box, &fakeMailer{enabled: false}, testLogger())

	require.NoError(t, box.Enqueue(ctx, &Notification{To: "a@x.com", Subject: "s", Body: "b"}))
	w.ProcessBatch(ctx)

	entries := box.All()
	require.Equal(t, StatusSent, entries[0].Status)
}
