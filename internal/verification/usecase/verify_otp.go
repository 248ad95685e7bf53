package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

type VerifyOTPInput struct {
	UserID  string `validate:"required,max=64"`
	Code    string `validate:"required,otpcode"`
	Channel string `validate:"required,oneof=email mobile"`
}

type VerifyOTPOutput struct {
	Verified      bool
	FullyVerified bool
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.Code = strings.TrimSpace(in.Code)
	in.Channel = strings.TrimSpace(strings.ToLower(in.Channel))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	channel := entity.ParseChannel(in.Channel)
	if channel.IsUnknown() {
		return nil, goerror.NewInvalidInput(nil, "channel", "channel must be one of email or mobile")
	}

	entry, hasEntry := s.cache.Get(in.UserID, channel)

	if bypass := s.cfg.GetString("modules.verification.bypass_code"); bypass != "" && in.Code == bypass {
		slog.WarnContext(ctx, "code verified via bypass", "user_id", in.UserID, "channel", channel.String())
		var destination string
		if hasEntry {
			destination = entry.Destination
		}
		return s.succeed(ctx, in.UserID, channel, destination), nil
	}

	if hasEntry && entry.Status == entity.CacheStatusSent && entry.Code == in.Code {
		return s.succeed(ctx, in.UserID, channel, entry.Destination), nil
	}

	codeHash, err := s.hmac.Hash(in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	challenge, err := s.repoDB.FindLatestActiveChallenge(ctx, in.UserID, string(codeHash), channel)
	if errors.Is(err, goerror.ErrNotFound) {
		s.failedAttempt(ctx, in.UserID, channel)
		return nil, goerror.NewBusiness("Invalid or expired code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find latest active challenge",
			"user_id", in.UserID, "channel", channel.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	// The store's counter is authoritative; the cache counter is only a
	// local throttle hint.
	if challenge.Attempts >= s.attemptLimit() {
		return nil, goerror.NewBusiness("Too many attempts, request a new code", goerror.CodeTooManyRequest)
	}

	if err := s.repoDB.AtomicVerifyAndUpdateUser(ctx, challenge.ID, in.UserID, channel); err != nil {
		slog.ErrorContext(ctx, "failed to repo verify and update user",
			"user_id", in.UserID, "challenge_id", challenge.ID, "error", err)
		s.failedAttempt(ctx, in.UserID, channel)
		return nil, goerror.NewBusiness("Verification failed", goerror.CodeUnauthorized)
	}

	s.cache.MarkVerified(in.UserID, channel)
	s.publishContactVerified(ctx, in.UserID, channel, challenge.Destination)

	return &VerifyOTPOutput{Verified: true, FullyVerified: channel == entity.ChannelMobile}, nil
}

// succeed handles the verification paths that do not touch the store
// synchronously: the cache fast path and the bypass code. The durable flags
// are propagated in the background.
func (s *Usecase) succeed(ctx context.Context, userID string, channel entity.Channel, destination string) *VerifyOTPOutput {
	s.cache.MarkVerified(userID, channel)

	bgCtx := context.WithoutCancel(ctx)
	s.goroutine.Go(bgCtx, func(ctx context.Context) error {
		if err := s.repoDB.SetUserChannelVerified(ctx, userID, channel, channel == entity.ChannelMobile); err != nil {
			slog.ErrorContext(ctx, "failed to repo set user channel verified",
				"user_id", userID, "channel", channel.String(), "error", err)
			return err
		}
		return nil
	})

	s.publishContactVerified(ctx, userID, channel, destination)

	return &VerifyOTPOutput{Verified: true, FullyVerified: channel == entity.ChannelMobile}
}

func (s *Usecase) publishContactVerified(ctx context.Context, userID string, channel entity.Channel, destination string) {
	if err := s.repoMessaging.PublishContactVerified(ctx, ContactVerifiedEvent{
		UserID:        userID,
		Channel:       channel,
		Destination:   destination,
		FullyVerified: channel == entity.ChannelMobile,
		VerifiedAt:    s.clock.Now().Unix(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish contact verified event",
			"user_id", userID, "channel", channel.String(), "error", err)
	}
}

// failedAttempt bumps both attempt counters. The remote bump is best-effort;
// a store outage must not hide the failure result from the caller.
func (s *Usecase) failedAttempt(ctx context.Context, userID string, channel entity.Channel) {
	s.cache.BumpAttempts(userID, channel, s.attemptLimit())

	if _, err := s.repoDB.BumpChallengeAttempts(ctx, userID, channel); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo bump challenge attempts",
			"user_id", userID, "channel", channel.String(), "error", err)
	}
}
