package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/updoot/discussion-backend/internal/core/ports"
	"github.com/updoot/discussion-backend/pkg/logger"
)

type chanMailer struct {
	sent chan ports.Mail

	mu  sync.Mutex
	err error
}

func (m *chanMailer) Send(_ context.Context, mail ports.Mail) error {
	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	m.sent <- mail
	return err
}

func (m *chanMailer) failWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func receiveMail(t *testing.T, ch <-chan ports.Mail) ports.Mail {
	t.Helper()
	select {
	case mail := <-ch:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for mail delivery")
		return ports.Mail{}
	}
}

func TestMailDispatcher_DeliversEnqueuedMail(t *testing.T) {
	logger.Reset()
	log := logger.Init(logger.Options{Level: "error"})
	mailer := &chanMailer{sent: make(chan ports.Mail, 8)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewMailDispatcher(2, mailer, log)
	d.Start(ctx)

	d.Enqueue(ports.Mail{To: "alice@example.com", Subject: "hello"})
	if got := receiveMail(t, mailer.sent); got.To != "alice@example.com" || got.Subject != "hello" {
		t.Fatalf("unexpected mail: %+v", got)
	}
}

func TestMailDispatcher_SameRecipientStaysOrdered(t *testing.T) {
	logger.Reset()
	log := logger.Init(logger.Options{Level: "error"})
	mailer := &chanMailer{sent: make(chan ports.Mail, 8)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewMailDispatcher(4, mailer, log)
	d.Start(ctx)

	// Same recipient shards to the same worker, so order is preserved.
	for _, subject := range []string{"first", "second", "third"} {
		d.Enqueue(ports.Mail{To: "alice@example.com", Subject: subject})
	}
	for _, want := range []string{"first", "second", "third"} {
		if got := receiveMail(t, mailer.sent); got.Subject != want {
			t.Fatalf("expected %q, got %q", want, got.Subject)
		}
	}
}

func TestMailDispatcher_DeliveryFailureIsSwallowed(t *testing.T) {
	logger.Reset()
	log := logger.Init(logger.Options{Level: "error"})
	mailer := &chanMailer{sent: make(chan ports.Mail, 8)}
	mailer.failWith(errors.New("smtp down"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewMailDispatcher(1, mailer, log)
	d.Start(ctx)

	// A failed send must not kill the worker; the next message still goes out.
	d.Enqueue(ports.Mail{To: "alice@example.com", Subject: "doomed"})
	receiveMail(t, mailer.sent)

	mailer.failWith(nil)
	d.Enqueue(ports.Mail{To: "alice@example.com", Subject: "retry-me"})
	if got := receiveMail(t, mailer.sent); got.Subject != "retry-me" {
		t.Fatalf("expected worker to survive failure, got %+v", got)
	}
}

func TestMailDispatcher_StopsOnContextCancel(t *testing.T) {
	logger.Reset()
	log := logger.Init(logger.Options{Level: "error"})
	mailer := &chanMailer{sent: make(chan ports.Mail, 8)}

	ctx, cancel := context.WithCancel(context.Background())
	d := NewMailDispatcher(1, mailer, log)
	d.Start(ctx)
	cancel()

	// Give the worker a moment to observe cancellation, then verify nothing
	// enqueued afterwards is delivered.
	time.Sleep(50 * time.Millisecond)
	d.Enqueue(ports.Mail{To: "alice@example.com", Subject: "too late"})
	select {
	case mail := <-mailer.sent:
		t.Fatalf("expected no delivery after cancel, got %+v", mail)
	case <-time.After(200 * time.Millisecond):
	}
}
