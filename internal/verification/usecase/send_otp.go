package usecase

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

type SendOTPInput struct {
	UserID      string `validate:"required,max=64"`
	Destination string `validate:"required,max=254"`
	Channel     string `validate:"required,oneof=email mobile"`
}

type emailDestination struct {
	Destination string `validate:"required,email"`
}

type mobileDestination struct {
	Destination string `validate:"required,e164"`
}

type SendOTPOutput struct {
	ExpiresAt   time.Time
	Delivered   bool
	Provider    string
	WaitSeconds int64
	DebugCode   string
	DebugNote   string
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.Destination = strings.TrimSpace(in.Destination)
	in.Channel = strings.TrimSpace(strings.ToLower(in.Channel))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	channel := entity.ParseChannel(in.Channel)
	switch channel {
	case entity.ChannelEmail:
		in.Destination = strings.ToLower(in.Destination)
		if err := s.validator.Validate(emailDestination{Destination: in.Destination}); err != nil {
			return nil, goerror.NewInvalidInput(err)
		}
	case entity.ChannelMobile:
		if err := s.validator.Validate(mobileDestination{Destination: in.Destination}); err != nil {
			return nil, goerror.NewInvalidInput(err)
		}
	default:
		return nil, goerror.NewInvalidInput(nil, "channel", "channel must be one of email or mobile")
	}

	if out, ok := s.withinCooldown(in.UserID, channel); ok {
		return out, nil
	}

	// Concurrent sends for the same (user, channel) collapse onto one
	// in-flight execution; late followers give up waiting and send on
	// their own after the configured window.
	resCh := s.flight.DoChan(cacheKey(in.UserID, channel), func() (any, error) {
		return s.sendCore(ctx, in.UserID, channel, in.Destination)
	})

	wait := s.cfg.GetSecond("modules.verification.inflight_wait_seconds")
	if wait <= 0 {
		wait = 15 * time.Second
	}

	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SendOTPOutput), nil
	case <-time.After(wait):
		slog.WarnContext(ctx, "gave up waiting for in-flight send, proceeding independently",
			"user_id", in.UserID, "channel", channel.String())
		return s.sendCore(ctx, in.UserID, channel, in.Destination)
	case <-ctx.Done():
		return nil, goerror.NewServer(ctx.Err())
	}
}

// withinCooldown reports whether a code was issued recently enough that the
// previous entry should be re-announced instead of issuing a new one.
func (s *Usecase) withinCooldown(userID string, channel entity.Channel) (*SendOTPOutput, bool) {
	entry, ok := s.cache.Get(userID, channel)
	if !ok {
		return nil, false
	}
	if entry.Status != entity.CacheStatusPending && entry.Status != entity.CacheStatusSent {
		return nil, false
	}

	cooldown := s.resendCooldown()
	elapsed := s.clock.Now().Sub(entry.LastSentAt)
	if elapsed >= cooldown {
		return nil, false
	}

	out := &SendOTPOutput{
		ExpiresAt:   entry.ExpiresAt,
		Delivered:   entry.Delivered,
		WaitSeconds: int64((cooldown - elapsed + time.Second - 1) / time.Second),
	}
	if s.cfg.GetBool("modules.verification.expose_debug") {
		out.DebugCode = entry.Code
	}

	return out, true
}

func (s *Usecase) sendCore(ctx context.Context, userID string, channel entity.Channel, destination string) (*SendOTPOutput, error) {
	// A follower that timed out waiting may land here right after the
	// leader finished; the cooldown check keeps the code stable.
	if out, ok := s.withinCooldown(userID, channel); ok {
		return out, nil
	}

	code, err := generateCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash code", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.codeTTL())

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.repoDB.InvalidatePriorChallenges(ctx, userID, channel); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo invalidate prior challenges",
			"user_id", userID, "channel", channel.String(), "error", err)
	}

	challenge := entity.Challenge{
		ID:          s.uid.Generate(),
		UserID:      userID,
		Channel:     channel,
		Destination: destination,
		CodeHash:    string(codeHash),
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}
	if err := s.repoDB.InsertChallenge(ctx, challenge); err != nil {
		slog.ErrorContext(ctx, "failed to repo insert challenge, degrading to cache-only verification",
			"user_id", userID, "channel", channel.String(), "error", err)
	}

	provider, delivered := s.dispatch(ctx, channel, userID, destination, code)

	// The entry is written as sent even when delivery failed: with both the
	// provider and the store down, the cache is the only path a correctly
	// relayed code can still verify through.
	s.cache.Put(userID, channel, entity.CacheEntry{
		Code:        code,
		Destination: destination,
		ExpiresAt:   expiresAt,
		Status:      entity.CacheStatusSent,
		Delivered:   delivered,
		LastSentAt:  now,
	})

	if err := s.repoMessaging.PublishOTPRequested(ctx, OTPRequestedEvent{
		UserID:      userID,
		Channel:     channel,
		Destination: destination,
		Provider:    provider,
		Delivered:   delivered,
		ExpiresAt:   expiresAt.Unix(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp requested event", "user_id", userID, "error", err)
	}

	out := &SendOTPOutput{
		ExpiresAt: expiresAt,
		Delivered: delivered,
		Provider:  provider,
	}
	if s.cfg.GetBool("modules.verification.expose_debug") {
		out.DebugCode = code
		if provider == "simulated" {
			out.DebugNote = "delivery simulated, no message was sent"
		}
	}

	return out, nil
}

// dispatch hands the code to the channel's provider chain under the channel's
// delivery deadline. Delivery failure is captured, not fatal.
func (s *Usecase) dispatch(ctx context.Context, channel entity.Channel, userID, destination, code string) (string, bool) {
	timeout := s.cfg.GetSecond("modules.verification.email_send_timeout_seconds")
	fallback := 10 * time.Second
	if channel == entity.ChannelMobile {
		timeout = s.cfg.GetSecond("modules.verification.mobile_send_timeout_seconds")
		fallback = 8 * time.Second
	}
	if timeout <= 0 {
		timeout = fallback
	}

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	provider, err := s.notifier.Send(sendCtx, channel, userID, destination, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to deliver code",
			"user_id", userID, "channel", channel.String(), "error", err)
		return provider, false
	}

	return provider, true
}

func (s *Usecase) resendCooldown() time.Duration {
	if d := s.cfg.GetSecond("modules.verification.resend_cooldown_seconds"); d > 0 {
		return d
	}
	return 30 * time.Second
}

func (s *Usecase) codeTTL() time.Duration {
	if d := s.cfg.GetMinute("modules.verification.code_ttl_minutes"); d > 0 {
		return d
	}
	return 10 * time.Minute
}

// generateCode draws a uniform 6 digit code, leading zeros included.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}

	code := n.String()
	for len(code) < 6 {
		code = "0" + code
	}

	return code, nil
}
