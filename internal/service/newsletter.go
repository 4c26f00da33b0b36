package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Skotchmaster/storefront/internal/mail"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const broadcastBatchSize = 50

type NewsletterService struct {
	Repo      *repo.GormRepo
	Mailer    Mailer
	From      string
	StoreName string
}

// Subscribe stores the address and sends a welcome email to new subscribers.
// Mail failures are logged and do not undo the subscription.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return false, fmt.Errorf("%w: valid email required", ErrValidation)
	}

	created, err := s.Repo.AddSubscriber(ctx, email)
	if err != nil {
		return false, err
	}
	if !created || s.Mailer == nil {
		return created, nil
	}

	name := s.StoreName
	if name == "" {
		name = "our store"
	}
	msg := mail.Message{
		From:    s.From,
		To:      []string{email},
		Subject: "Welcome to " + name,
		HTML:    "<p>Thanks for subscribing to " + html.EscapeString(name) + ". New drops and offers will land in your inbox.</p>",
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		logging.FromContext(ctx).Warnw("welcome_email_failed", "email", email, "error", err)
	}
	return created, nil
}

// Broadcast mails every subscriber, batching recipients into BCC lists.
func (s *NewsletterService) Broadcast(ctx context.Context, subject, body string) (int, error) {
	if s.Mailer == nil {
		return 0, fmt.Errorf("%w: mail is not configured", ErrUnavailable)
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return 0, fmt.Errorf("%w: subject and html required", ErrValidation)
	}

	emails, err := s.Repo.SubscriberEmails(ctx)
	if err != nil {
		return 0, err
	}

	l := logging.FromContext(ctx)
	sent := 0
	for start := 0; start < len(emails); start += broadcastBatchSize {
		end := min(start+broadcastBatchSize, len(emails))
		batch := emails[start:end]
		msg := mail.Message{
			From:    s.From,
			To:      []string{s.From},
			Bcc:     batch,
			Subject: subject,
			HTML:    body,
		}
		if err := s.Mailer.Send(ctx, msg); err != nil {
			l.Errorw("broadcast_batch_failed", "offset", start, "sent", sent, "error", err)
			return sent, fmt.Errorf("%w: send batch at %d: %v", ErrUnavailable, start, err)
		}
		sent += len(batch)
	}
	l.Infow("broadcast_sent", "recipients", sent)
	return sent, nil
}
