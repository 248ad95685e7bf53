package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
)

func TestCanResend_NoPriorSend(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.uc.CanResend(context.Background(), CanResendInput{UserID: "u-1", Channel: "email"})
	if err != nil {
		t.Fatalf("can resend: %v", err)
	}

	if !out.CanSend || out.WaitSeconds != 0 {
		t.Fatalf("expected immediate send allowance, got %+v", out)
	}
}

func TestCanResend_WithinCooldown(t *testing.T) {
	fx := newFixture(t)
	sendCode(t, fx, "u-1", "user@example.com", "email")

	fx.clock.Advance(12 * time.Second)

	out, err := fx.uc.CanResend(context.Background(), CanResendInput{UserID: "u-1", Channel: "email"})
	if err != nil {
		t.Fatalf("can resend: %v", err)
	}

	if out.CanSend {
		t.Fatal("expected resend blocked during cooldown")
	}
	if out.WaitSeconds != 18 {
		t.Fatalf("expected 18s wait, got %d", out.WaitSeconds)
	}
}

func TestCanResend_AfterCooldown(t *testing.T) {
	fx := newFixture(t)
	sendCode(t, fx, "u-1", "user@example.com", "email")

	fx.clock.Advance(30 * time.Second)

	out, err := fx.uc.CanResend(context.Background(), CanResendInput{UserID: "u-1", Channel: "email"})
	if err != nil {
		t.Fatalf("can resend: %v", err)
	}

	if !out.CanSend {
		t.Fatalf("expected resend allowed after cooldown, got %+v", out)
	}
}

func TestCanResend_OtherChannelUnaffected(t *testing.T) {
	fx := newFixture(t)
	sendCode(t, fx, "u-1", "user@example.com", "email")

	out, err := fx.uc.CanResend(context.Background(), CanResendInput{UserID: "u-1", Channel: "mobile"})
	if err != nil {
		t.Fatalf("can resend: %v", err)
	}

	if !out.CanSend {
		t.Fatal("expected mobile channel unaffected by email cooldown")
	}
}

func TestCanResend_ValidationError(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.uc.CanResend(context.Background(), CanResendInput{UserID: "u-1", Channel: "fax"})
	gerr := asGoError(t, err)
	if gerr.Type() != goerror.TypeValidation {
		t.Fatalf("expected validation error, got %s", gerr.Type())
	}
}
