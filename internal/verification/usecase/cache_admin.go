package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

type CacheStatusInput struct {
	UserID  string `validate:"required,max=64"`
	Channel string `validate:"required,oneof=email mobile"`
}

type CacheStatusOutput struct {
	Found      bool
	MaskedCode string
	Status     entity.CacheStatus
	Attempts   int32
	ExpiresAt  time.Time
	LastSentAt time.Time
}

// CacheStatus returns a masked snapshot of the process-local entry for
// operator inspection. The plaintext code is never exposed here.
func (s *Usecase) CacheStatus(ctx context.Context, in CacheStatusInput) (*CacheStatusOutput, error) {
	_, span := s.startSpan(ctx, "CacheStatus")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.Channel = strings.TrimSpace(strings.ToLower(in.Channel))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	entry, ok := s.cache.Get(in.UserID, entity.ParseChannel(in.Channel))
	if !ok {
		return &CacheStatusOutput{}, nil
	}

	return &CacheStatusOutput{
		Found:      true,
		MaskedCode: maskCode(entry.Code),
		Status:     entry.Status,
		Attempts:   entry.Attempts,
		ExpiresAt:  entry.ExpiresAt,
		LastSentAt: entry.LastSentAt,
	}, nil
}

type ClearCacheInput struct {
	UserID  string `validate:"required,max=64"`
	Channel string `validate:"required,oneof=email mobile"`
}

// ClearCache drops the process-local entry and, best-effort, the user's
// durable challenges for the channel.
func (s *Usecase) ClearCache(ctx context.Context, in ClearCacheInput) error {
	ctx, span := s.startSpan(ctx, "ClearCache")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.Channel = strings.TrimSpace(strings.ToLower(in.Channel))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	channel := entity.ParseChannel(in.Channel)
	s.cache.Delete(in.UserID, channel)

	if err := s.repoDB.DeleteAllChallenges(ctx, in.UserID, channel); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete all challenges",
			"user_id", in.UserID, "channel", channel.String(), "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func maskCode(code string) string {
	if len(code) < 2 {
		return strings.Repeat("*", len(code))
	}
	return code[:1] + strings.Repeat("*", len(code)-2) + code[len(code)-1:]
}
