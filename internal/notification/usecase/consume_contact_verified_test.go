package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/clock"
	"github.com/veriflowhq/veriflow/internal/pkg/idempotency"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/mail"
	"github.com/veriflowhq/veriflow/internal/pkg/validator"
)

type fakeMail struct {
	calls   int
	lastMsg mail.Message
	sendErr error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.calls++
	f.lastMsg = msg
	return f.sendErr
}

// fakeIdempotency runs each key's fn once and absorbs replays.
type fakeIdempotency struct {
	seen map[string]bool
	keys []string
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{seen: map[string]bool{}}
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.keys = append(f.keys, key)
	if f.seen[key] {
		return nil
	}
	f.seen[key] = true
	return fn(ctx)
}

func newNotificationFixture(t *testing.T) (*Usecase, *fakeMail, *fakeIdempotency) {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to init validator: %v", err)
	}

	m := &fakeMail{}
	idemp := newFakeIdempotency()

	uc := NewNotification(Dependency{
		Clock:       clock.New(),
		Validator:   v,
		RepoMail:    m,
		Idempotency: idemp,
		Instrument:  instrument.NewNoop(),
	})

	return uc, m, idemp
}

func TestConsumeContactVerified_SendsEmail(t *testing.T) {
	uc, m, _ := newNotificationFixture(t)

	err := uc.ConsumeContactVerified(context.Background(), ConsumeContactVerifiedInput{
		UserID:      "u-1",
		Channel:     "email",
		Destination: "user@example.com",
		VerifiedAt:  time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if m.calls != 1 {
		t.Fatalf("expected one email, got %d", m.calls)
	}
	if m.lastMsg.To[0] != "user@example.com" {
		t.Fatalf("unexpected recipient %v", m.lastMsg.To)
	}
	if m.lastMsg.Subject != "Your email address is verified" {
		t.Fatalf("unexpected subject %q", m.lastMsg.Subject)
	}
}

func TestConsumeContactVerified_FullyVerifiedChangesCopy(t *testing.T) {
	uc, m, _ := newNotificationFixture(t)

	err := uc.ConsumeContactVerified(context.Background(), ConsumeContactVerifiedInput{
		UserID:        "u-1",
		Channel:       "email",
		Destination:   "user@example.com",
		FullyVerified: true,
		VerifiedAt:    time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if m.lastMsg.Subject != "Your account is fully verified" {
		t.Fatalf("unexpected subject %q", m.lastMsg.Subject)
	}
}

func TestConsumeContactVerified_SkipsNonEmail(t *testing.T) {
	uc, m, idemp := newNotificationFixture(t)

	err := uc.ConsumeContactVerified(context.Background(), ConsumeContactVerifiedInput{
		UserID:        "u-1",
		Channel:       "mobile",
		Destination:   "+628123456789",
		FullyVerified: true,
		VerifiedAt:    time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if m.calls != 0 {
		t.Fatalf("expected no email for mobile events, got %d", m.calls)
	}
	if len(idemp.keys) != 0 {
		t.Fatal("expected no idempotency attempt for skipped events")
	}
}

func TestConsumeContactVerified_SkipsMissingDestination(t *testing.T) {
	uc, m, _ := newNotificationFixture(t)

	err := uc.ConsumeContactVerified(context.Background(), ConsumeContactVerifiedInput{
		UserID:     "u-1",
		Channel:    "email",
		VerifiedAt: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if m.calls != 0 {
		t.Fatalf("expected no email without a destination, got %d", m.calls)
	}
}

func TestConsumeContactVerified_RedeliveryAbsorbed(t *testing.T) {
	uc, m, _ := newNotificationFixture(t)

	in := ConsumeContactVerifiedInput{
		UserID:      "u-1",
		Channel:     "email",
		Destination: "user@example.com",
		VerifiedAt:  1717236000,
	}

	for i := 0; i < 3; i++ {
		if err := uc.ConsumeContactVerified(context.Background(), in); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	if m.calls != 1 {
		t.Fatalf("expected a single email across redeliveries, got %d", m.calls)
	}
}

func TestConsumeContactVerified_InvalidPayloadDropped(t *testing.T) {
	uc, m, _ := newNotificationFixture(t)

	err := uc.ConsumeContactVerified(context.Background(), ConsumeContactVerifiedInput{
		Channel:     "email",
		Destination: "user@example.com",
	})
	if err != nil {
		t.Fatalf("expected invalid payloads dropped without error, got %v", err)
	}

	if m.calls != 0 {
		t.Fatalf("expected no email for invalid payload, got %d", m.calls)
	}
}

func TestConsumeContactVerified_SendFailurePropagates(t *testing.T) {
	uc, m, _ := newNotificationFixture(t)
	m.sendErr = errors.New("smtp: connection refused")

	err := uc.ConsumeContactVerified(context.Background(), ConsumeContactVerifiedInput{
		UserID:      "u-1",
		Channel:     "email",
		Destination: "user@example.com",
		VerifiedAt:  time.Now().Unix(),
	})
	if !errors.Is(err, m.sendErr) {
		t.Fatalf("expected send error surfaced for redelivery, got %v", err)
	}
}
