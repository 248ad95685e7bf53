package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

type CanResendInput struct {
	UserID  string `validate:"required,max=64"`
	Channel string `validate:"required,oneof=email mobile"`
}

type CanResendOutput struct {
	CanSend     bool
	WaitSeconds int64
}

// CanResend reports whether a new code could be issued right now without
// hitting the resend cooldown.
func (s *Usecase) CanResend(ctx context.Context, in CanResendInput) (*CanResendOutput, error) {
	_, span := s.startSpan(ctx, "CanResend")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.Channel = strings.TrimSpace(strings.ToLower(in.Channel))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	channel := entity.ParseChannel(in.Channel)

	entry, ok := s.cache.Get(in.UserID, channel)
	if !ok || (entry.Status != entity.CacheStatusPending && entry.Status != entity.CacheStatusSent) {
		return &CanResendOutput{CanSend: true}, nil
	}

	cooldown := s.resendCooldown()
	elapsed := s.clock.Now().Sub(entry.LastSentAt)
	if elapsed >= cooldown {
		return &CanResendOutput{CanSend: true}, nil
	}

	return &CanResendOutput{
		WaitSeconds: int64((cooldown - elapsed + time.Second - 1) / time.Second),
	}, nil
}
