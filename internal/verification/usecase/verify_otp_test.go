package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

func sendCode(t *testing.T, fx *fixture, userID, destination, channel string) string {
	t.Helper()

	fx.cfg.bools["modules.verification.expose_debug"] = true
	out, err := fx.uc.SendOTP(context.Background(), SendOTPInput{
		UserID:      userID,
		Destination: destination,
		Channel:     channel,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	return out.DebugCode
}

func waitSetVerified(t *testing.T, fx *fixture) {
	t.Helper()

	select {
	case <-fx.db.setVerifiedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for user verification flag write")
	}
}

func TestVerifyOTP_CacheFastPath(t *testing.T) {
	fx := newFixture(t)
	code := sendCode(t, fx, "u-1", "user@example.com", "email")

	out, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    code,
		Channel: "email",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if !out.Verified {
		t.Fatal("expected verified")
	}
	if out.FullyVerified {
		t.Fatal("email alone must not fully verify")
	}

	waitSetVerified(t, fx)

	fx.mq.mu.Lock()
	defer fx.mq.mu.Unlock()
	if len(fx.mq.verified) != 1 {
		t.Fatalf("expected one contact verified event, got %d", len(fx.mq.verified))
	}
	if evt := fx.mq.verified[0]; evt.UserID != "u-1" || evt.Channel != entity.ChannelEmail || evt.FullyVerified {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt := fx.mq.verified[0]; evt.Destination != "user@example.com" {
		t.Fatalf("expected the cached destination on the event, got %q", evt.Destination)
	}
}

func TestVerifyOTP_CacheOnlyWhenStoreAndDeliveryDown(t *testing.T) {
	fx := newFixture(t)
	fx.notifier.err = errors.New("provider outage")
	fx.db.insertErr = errors.New("store outage")

	code := sendCode(t, fx, "u-1", "user@example.com", "email")
	if code == "" {
		t.Fatal("expected a code despite the outages")
	}

	out, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    code,
		Channel: "email",
	})
	if err != nil {
		t.Fatalf("expected cache-only verification to succeed, got %v", err)
	}

	if !out.Verified {
		t.Fatal("expected verified")
	}
	waitSetVerified(t, fx)
}

func TestVerifyOTP_MobileFullyVerifies(t *testing.T) {
	fx := newFixture(t)
	code := sendCode(t, fx, "u-1", "+628123456789", "mobile")

	out, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    code,
		Channel: "mobile",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if !out.FullyVerified {
		t.Fatal("expected mobile verification to fully verify")
	}
	waitSetVerified(t, fx)
}

func TestVerifyOTP_CodeIsSingleUse(t *testing.T) {
	fx := newFixture(t)
	code := sendCode(t, fx, "u-1", "user@example.com", "email")

	in := VerifyOTPInput{UserID: "u-1", Code: code, Channel: "email"}

	if _, err := fx.uc.VerifyOTP(context.Background(), in); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	waitSetVerified(t, fx)

	_, err := fx.uc.VerifyOTP(context.Background(), in)
	gerr := asGoError(t, err)
	if gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized on reuse, got %s", gerr.Code())
	}
}

func TestVerifyOTP_InvalidCode(t *testing.T) {
	fx := newFixture(t)
	sendCode(t, fx, "u-1", "user@example.com", "email")

	_, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    "000000",
		Channel: "email",
	})

	gerr := asGoError(t, err)
	if gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", gerr.Code())
	}
	if fx.db.bumpCount != 1 {
		t.Fatalf("expected one attempt bump, got %d", fx.db.bumpCount)
	}
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	fx := newFixture(t)
	code := sendCode(t, fx, "u-1", "user@example.com", "email")

	fx.clock.Advance(11 * time.Minute)

	_, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    code,
		Channel: "email",
	})

	gerr := asGoError(t, err)
	if gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized for expired code, got %s", gerr.Code())
	}
}

func TestVerifyOTP_LocalAttemptCeiling(t *testing.T) {
	fx := newFixture(t)
	code := sendCode(t, fx, "u-1", "user@example.com", "email")

	for i := 0; i < 5; i++ {
		wrong := fmt.Sprintf("%06d", 111111*(i+1)%1000000)
		if wrong == code {
			wrong = "000000"
		}
		if _, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
			UserID: "u-1", Code: wrong, Channel: "email",
		}); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}

	// The right code no longer rides the fast path once the local entry is
	// burned, and the store has no matching active challenge either.
	_, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    code,
		Channel: "email",
	})
	gerr := asGoError(t, err)
	if gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized after exhausted attempts, got %s", gerr.Code())
	}
}

func TestVerifyOTP_StoreAttemptCeiling(t *testing.T) {
	fx := newFixture(t)
	fx.db.findFn = func(userID, codeHash string, channel entity.Channel) (*entity.Challenge, error) {
		return &entity.Challenge{ID: 7, UserID: userID, Channel: channel, Attempts: 5}, nil
	}

	_, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    "123456",
		Channel: "email",
	})

	gerr := asGoError(t, err)
	if gerr.Code() != goerror.CodeTooManyRequest {
		t.Fatalf("expected too many requests, got %s", gerr.Code())
	}
	if fx.db.atomicCount != 0 {
		t.Fatal("expected no verify write after attempt ceiling")
	}
}

func TestVerifyOTP_SlowPathSuccess(t *testing.T) {
	fx := newFixture(t)
	fx.db.findFn = func(userID, codeHash string, channel entity.Channel) (*entity.Challenge, error) {
		return &entity.Challenge{
			ID: 7, UserID: userID, Channel: channel,
			Destination: "+628123456789", Attempts: 2,
		}, nil
	}

	out, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    "123456",
		Channel: "mobile",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if !out.Verified || !out.FullyVerified {
		t.Fatalf("expected full verification, got %+v", out)
	}
	if fx.db.atomicCount != 1 {
		t.Fatalf("expected one atomic verify, got %d", fx.db.atomicCount)
	}
	if len(fx.mq.verified) != 1 || fx.mq.verified[0].Destination != "+628123456789" {
		t.Fatalf("unexpected events %+v", fx.mq.verified)
	}
}

func TestVerifyOTP_AtomicVerifyFailure(t *testing.T) {
	fx := newFixture(t)
	fx.db.findFn = func(userID, codeHash string, channel entity.Channel) (*entity.Challenge, error) {
		return &entity.Challenge{ID: 7, UserID: userID, Channel: channel}, nil
	}
	fx.db.atomicErr = goerror.ErrConflict

	_, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    "123456",
		Channel: "email",
	})

	gerr := asGoError(t, err)
	if gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", gerr.Code())
	}
	if fx.db.bumpCount != 1 {
		t.Fatalf("expected attempt bump on failed verify write, got %d", fx.db.bumpCount)
	}
}

func TestVerifyOTP_BypassCode(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.strings["modules.verification.bypass_code"] = "424242"
	fx.db.findFn = func(string, string, entity.Channel) (*entity.Challenge, error) {
		t.Fatal("bypass must not consult the store")
		return nil, nil
	}

	out, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    "424242",
		Channel: "mobile",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if !out.Verified || !out.FullyVerified {
		t.Fatalf("expected bypass to verify, got %+v", out)
	}
	waitSetVerified(t, fx)
}

func TestVerifyOTP_ValidationError(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.uc.VerifyOTP(context.Background(), VerifyOTPInput{
		UserID:  "u-1",
		Code:    "12ab56",
		Channel: "email",
	})

	gerr := asGoError(t, err)
	if gerr.Type() != goerror.TypeValidation {
		t.Fatalf("expected validation error, got %s", gerr.Type())
	}
}
