package email

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/updoot/discussion-backend/internal/core/ports"
)

// PostmarkConfig captures the settings for the Postmark transactional API.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	From         string
}

// PostmarkMailer delivers mail through Postmark.
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(cfg PostmarkConfig) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.From,
	}
}

func (m *PostmarkMailer) Send(ctx context.Context, mail ports.Mail) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.from,
		To:       mail.To,
		Subject:  mail.Subject,
		HTMLBody: mail.HTML,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark send: %d %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
