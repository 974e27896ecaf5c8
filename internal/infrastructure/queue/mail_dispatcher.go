package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/updoot/discussion-backend/internal/api/metrics"
	"github.com/updoot/discussion-backend/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
)

// MailDispatcher delivers outbound mail asynchronously through a fixed set
// of workers, sharded by recipient so mail to the same address stays
// ordered. Enqueue never blocks the request path up to channelBuffer
// capacity; delivery failures are logged and counted, never propagated.
type MailDispatcher struct {
	workers []chan ports.Mail
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewMailDispatcher creates a MailDispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers: make([]chan ports.Mail, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Mail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// in-flight sends run to completion.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its recipient.
func (d *MailDispatcher) Enqueue(mail ports.Mail) {
	d.workers[d.shardIndex(mail.To)] <- mail
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32()) % len(d.workers)
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Mail) {
	for {
		select {
		case <-ctx.Done():
			return
		case mail, ok := <-ch:
			if !ok {
				return
			}
			sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			err := d.mailer.Send(sendCtx, mail)
			cancel()
			if err != nil {
				metrics.MailTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("to", mail.To).
					Int("worker_id", id).
					Msg("mail delivery failed")
				continue
			}
			metrics.MailTotal.WithLabelValues("sent").Inc()
		}
	}
}
