package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"booking-service/internal/calendar"
)

// GmailMailer sends mail through the owner's Gmail account, reusing the
// calendar OAuth connection (the gmail.send scope is part of the consent).
type GmailMailer struct {
	auth      *calendar.Auth
	fromName  string
	fromEmail string
}

func NewGmailMailer(auth *calendar.Auth, fromName, fromEmail string) *GmailMailer {
	return &GmailMailer{auth: auth, fromName: fromName, fromEmail: fromEmail}
}

func (m *GmailMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	ts, err := m.auth.TokenSource(ctx)
	if err != nil {
		return err
	}
	srv, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return err
	}

	lines := []string{
		"To: " + to,
		fmt.Sprintf("From: %q <%s>", m.fromName, m.fromEmail),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		htmlBody,
	}
	raw := base64.RawURLEncoding.EncodeToString([]byte(strings.Join(lines, "\r\n")))

	_, err = srv.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}
