package notify

import (
	"context"
	"fmt"

	"github.com/veriflowhq/veriflow/internal/pkg/mail"
)

// Email delivers the code over any mail.Mail implementation. The provider
// name distinguishes chain members backed by different mailers.
type Email struct {
	mailer mail.Mail
	name   string
}

func NewEmail(name string, mailer mail.Mail) *Email {
	return &Email{mailer: mailer, name: name}
}

func (e *Email) Name() string { return e.name }

func (e *Email) Send(ctx context.Context, _, destination, code string) error {
	return e.mailer.Send(ctx, mail.Message{
		To:       []string{destination},
		Subject:  "Your verification code",
		TextBody: fmt.Sprintf("Your verification code is %s. Do not share it with anyone.", code),
		HTMLBody: fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>Do not share it with anyone.</p>", code),
	})
}
