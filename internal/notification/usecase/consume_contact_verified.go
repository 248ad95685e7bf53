package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/idempotency"
	"github.com/veriflowhq/veriflow/internal/pkg/mail"
)

type ConsumeContactVerifiedInput struct {
	UserID        string `validate:"required,max=64"`
	Channel       string `validate:"required,oneof=email mobile"`
	Destination   string
	FullyVerified bool
	VerifiedAt    int64
}

// ConsumeContactVerified sends a courtesy email when a contact channel gets
// verified. Redelivered events are absorbed by the idempotency guard.
func (s *Usecase) ConsumeContactVerified(ctx context.Context, in ConsumeContactVerifiedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeContactVerified")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	if in.Channel != "email" || in.Destination == "" {
		// Only the email channel carries an address we can write to.
		return nil
	}

	key := "contact_verified:" + in.UserID + ":" + in.Channel + ":" + strconv.FormatInt(in.VerifiedAt, 10)

	return s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		subject := "Your email address is verified"
		body := "Your email address has been verified successfully."
		if in.FullyVerified {
			subject = "Your account is fully verified"
			body = "All required contact channels are verified. Your account is fully verified."
		}

		if err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Destination},
			Subject:  subject,
			TextBody: body,
			HTMLBody: fmt.Sprintf("<p>%s</p>", body),
		}); err != nil {
			slog.ErrorContext(ctx, "failed to send verification complete email",
				"user_id", in.UserID, "error", err)
			return err
		}

		return nil
	}, idempotency.WithLockDuration(time.Minute), idempotency.WithStateTTL(24*time.Hour))
}
