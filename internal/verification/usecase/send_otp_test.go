package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
)

func TestSendOTP_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		in   SendOTPInput
	}{
		{
			name: "missing user id",
			in:   SendOTPInput{Destination: "user@example.com", Channel: "email"},
		},
		{
			name: "unknown channel",
			in:   SendOTPInput{UserID: "u-1", Destination: "user@example.com", Channel: "carrier-pigeon"},
		},
		{
			name: "malformed email destination",
			in:   SendOTPInput{UserID: "u-1", Destination: "not-an-email", Channel: "email"},
		},
		{
			name: "malformed mobile destination",
			in:   SendOTPInput{UserID: "u-1", Destination: "0812 not e164", Channel: "mobile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)

			out, err := fx.uc.SendOTP(context.Background(), tt.in)
			if out != nil {
				t.Fatalf("expected nil output, got %+v", out)
			}

			gerr := asGoError(t, err)
			if gerr.Type() != goerror.TypeValidation {
				t.Fatalf("expected validation error, got %s", gerr.Type())
			}

			if fx.db.insertCount != 0 || fx.db.invalidateCount != 0 {
				t.Fatalf("expected no store calls, got insert=%d invalidate=%d",
					fx.db.insertCount, fx.db.invalidateCount)
			}
			if fx.notifier.calls != 0 {
				t.Fatalf("expected no delivery attempt, got %d", fx.notifier.calls)
			}
		})
	}
}

func TestSendOTP_EmailSuccess(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.bools["modules.verification.expose_debug"] = true

	out, err := fx.uc.SendOTP(context.Background(), SendOTPInput{
		UserID:      "u-1",
		Destination: "User@Example.COM",
		Channel:     "email",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !out.Delivered {
		t.Fatal("expected delivered")
	}
	if out.Provider != "smtp" {
		t.Fatalf("expected provider smtp, got %q", out.Provider)
	}
	if len(out.DebugCode) != 6 {
		t.Fatalf("expected 6 digit debug code, got %q", out.DebugCode)
	}
	if want := fx.clock.Now().Add(10 * time.Minute); !out.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, out.ExpiresAt)
	}

	if fx.notifier.lastDest != "user@example.com" {
		t.Fatalf("expected lowercased destination, got %q", fx.notifier.lastDest)
	}
	if fx.notifier.lastCode != out.DebugCode {
		t.Fatalf("delivered code %q does not match issued code %q", fx.notifier.lastCode, out.DebugCode)
	}

	if fx.db.invalidateCount != 1 || fx.db.insertCount != 1 {
		t.Fatalf("expected one invalidate and one insert, got %d and %d",
			fx.db.invalidateCount, fx.db.insertCount)
	}
	ch := fx.db.inserted[0]
	if ch.UserID != "u-1" || ch.Destination != "user@example.com" || ch.ID == 0 {
		t.Fatalf("unexpected challenge %+v", ch)
	}
	if ch.CodeHash == "" || ch.CodeHash == out.DebugCode {
		t.Fatal("expected the stored hash to differ from the plaintext code")
	}

	if len(fx.mq.requested) != 1 {
		t.Fatalf("expected one otp requested event, got %d", len(fx.mq.requested))
	}
	if evt := fx.mq.requested[0]; evt.UserID != "u-1" || !evt.Delivered {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestSendOTP_CooldownReturnsSameCode(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.bools["modules.verification.expose_debug"] = true

	in := SendOTPInput{UserID: "u-1", Destination: "user@example.com", Channel: "email"}

	first, err := fx.uc.SendOTP(context.Background(), in)
	if err != nil {
		t.Fatalf("first send: %v", err)
	}

	fx.clock.Advance(10 * time.Second)

	second, err := fx.uc.SendOTP(context.Background(), in)
	if err != nil {
		t.Fatalf("second send: %v", err)
	}

	if second.WaitSeconds != 20 {
		t.Fatalf("expected 20s wait, got %d", second.WaitSeconds)
	}
	if second.DebugCode != first.DebugCode {
		t.Fatalf("expected same code during cooldown, got %q and %q", first.DebugCode, second.DebugCode)
	}
	if !second.ExpiresAt.Equal(first.ExpiresAt) {
		t.Fatalf("expected same expiry during cooldown")
	}

	if fx.db.insertCount != 1 {
		t.Fatalf("expected a single insert, got %d", fx.db.insertCount)
	}
	if fx.notifier.calls != 1 {
		t.Fatalf("expected a single delivery, got %d", fx.notifier.calls)
	}
}

func TestSendOTP_NewCodeAfterCooldown(t *testing.T) {
	fx := newFixture(t)

	in := SendOTPInput{UserID: "u-1", Destination: "user@example.com", Channel: "email"}

	if _, err := fx.uc.SendOTP(context.Background(), in); err != nil {
		t.Fatalf("first send: %v", err)
	}

	fx.clock.Advance(31 * time.Second)

	out, err := fx.uc.SendOTP(context.Background(), in)
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if out.WaitSeconds != 0 {
		t.Fatalf("expected no wait after cooldown, got %d", out.WaitSeconds)
	}

	if fx.db.insertCount != 2 {
		t.Fatalf("expected two inserts, got %d", fx.db.insertCount)
	}
	if fx.notifier.calls != 2 {
		t.Fatalf("expected two deliveries, got %d", fx.notifier.calls)
	}
}

func TestSendOTP_DeliveryFailureIsNotFatal(t *testing.T) {
	fx := newFixture(t)
	fx.notifier.err = errors.New("smtp: connection refused")

	out, err := fx.uc.SendOTP(context.Background(), SendOTPInput{
		UserID:      "u-1",
		Destination: "user@example.com",
		Channel:     "email",
	})
	if err != nil {
		t.Fatalf("expected no error on delivery failure, got %v", err)
	}

	if out.Delivered {
		t.Fatal("expected delivered false")
	}
	if fx.db.insertCount != 1 {
		t.Fatalf("expected challenge persisted regardless, got %d inserts", fx.db.insertCount)
	}
	if len(fx.mq.requested) != 1 || fx.mq.requested[0].Delivered {
		t.Fatalf("expected undelivered event, got %+v", fx.mq.requested)
	}

	// The cooldown re-announce must not claim delivery either.
	again, err := fx.uc.SendOTP(context.Background(), SendOTPInput{
		UserID:      "u-1",
		Destination: "user@example.com",
		Channel:     "email",
	})
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if again.Delivered || again.WaitSeconds == 0 {
		t.Fatalf("expected undelivered cooldown response, got %+v", again)
	}
}

func TestSendOTP_SimulatedDebugNote(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.bools["modules.verification.expose_debug"] = true
	fx.notifier.provider = "simulated"

	out, err := fx.uc.SendOTP(context.Background(), SendOTPInput{
		UserID:      "u-1",
		Destination: "+628123456789",
		Channel:     "mobile",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.DebugNote == "" {
		t.Fatal("expected a debug note for simulated delivery")
	}
}

func TestSendOTP_DebugHiddenByDefault(t *testing.T) {
	fx := newFixture(t)
	fx.notifier.provider = "simulated"

	out, err := fx.uc.SendOTP(context.Background(), SendOTPInput{
		UserID:      "u-1",
		Destination: "user@example.com",
		Channel:     "email",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.DebugCode != "" || out.DebugNote != "" {
		t.Fatalf("expected no debug fields, got code=%q note=%q", out.DebugCode, out.DebugNote)
	}
}

func TestSendOTP_ConcurrentRequestsCollapse(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.bools["modules.verification.expose_debug"] = true

	in := SendOTPInput{UserID: "u-1", Destination: "user@example.com", Channel: "email"}

	const n = 8
	codes := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := fx.uc.SendOTP(context.Background(), in)
			if err != nil {
				errs[i] = err
				return
			}
			codes[i] = out.DebugCode
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	for i := 1; i < n; i++ {
		if codes[i] != codes[0] {
			t.Fatalf("expected all callers to observe one code, got %q and %q", codes[0], codes[i])
		}
	}

	if fx.db.insertCount != 1 {
		t.Fatalf("expected a single insert under concurrency, got %d", fx.db.insertCount)
	}
	if fx.notifier.calls != 1 {
		t.Fatalf("expected a single delivery under concurrency, got %d", fx.notifier.calls)
	}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}
