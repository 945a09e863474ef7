package mail

import "context"

// Mailer sends an HTML email to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
