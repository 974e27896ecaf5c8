package ports

import "context"

// Mail is a single outbound message.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers one message synchronously.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// MailDispatcher accepts messages for asynchronous, fire-and-forget
// delivery. Enqueue must not block the request path; delivery failures are
// observed out-of-band (logs, metrics), never by the enqueuer.
type MailDispatcher interface {
	Enqueue(mail Mail)
}
