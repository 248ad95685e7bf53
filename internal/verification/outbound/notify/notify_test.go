package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

type fakeSender struct {
	name  string
	err   error
	calls int
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(context.Context, string, string, string) error {
	f.calls++
	return f.err
}

func TestDispatcher_FirstProviderWins(t *testing.T) {
	first := &fakeSender{name: "hook"}
	second := &fakeSender{name: "smtp"}
	d := NewDispatcher([]Sender{first, second}, nil, instrument.NewNoop())

	provider, err := d.Send(context.Background(), entity.ChannelEmail, "u-1", "user@example.com", "123456")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if provider != "hook" {
		t.Fatalf("expected hook, got %q", provider)
	}
	if first.calls != 1 || second.calls != 0 {
		t.Fatalf("expected only the first provider tried, got %d and %d", first.calls, second.calls)
	}
}

func TestDispatcher_FallsThroughOnFailure(t *testing.T) {
	first := &fakeSender{name: "hook", err: errors.New("timeout")}
	second := &fakeSender{name: "sendgrid", err: errors.New("401")}
	third := &fakeSender{name: "smtp"}
	d := NewDispatcher([]Sender{first, second, third}, nil, instrument.NewNoop())

	provider, err := d.Send(context.Background(), entity.ChannelEmail, "u-1", "user@example.com", "123456")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if provider != "smtp" {
		t.Fatalf("expected smtp, got %q", provider)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Fatal("expected each provider tried exactly once")
	}
}

func TestDispatcher_AllProvidersFail(t *testing.T) {
	first := &fakeSender{name: "hook", err: errors.New("timeout")}
	second := &fakeSender{name: "sms_gateway", err: errors.New("503")}
	d := NewDispatcher(nil, []Sender{first, second}, instrument.NewNoop())

	_, err := d.Send(context.Background(), entity.ChannelMobile, "u-1", "+628123456789", "123456")
	if err == nil {
		t.Fatal("expected an error when every provider fails")
	}
	if !errors.Is(err, first.err) || !errors.Is(err, second.err) {
		t.Fatalf("expected joined provider errors, got %v", err)
	}
}

func TestDispatcher_ChannelSelectsChain(t *testing.T) {
	email := &fakeSender{name: "smtp"}
	mobile := &fakeSender{name: "sms_gateway"}
	d := NewDispatcher([]Sender{email}, []Sender{mobile}, instrument.NewNoop())

	provider, err := d.Send(context.Background(), entity.ChannelMobile, "u-1", "+628123456789", "123456")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if provider != "sms_gateway" {
		t.Fatalf("expected mobile chain, got %q", provider)
	}
	if email.calls != 0 {
		t.Fatal("expected email chain untouched")
	}
}

func TestDispatcher_EmptyChain(t *testing.T) {
	d := NewDispatcher(nil, nil, instrument.NewNoop())

	_, err := d.Send(context.Background(), entity.ChannelEmail, "u-1", "user@example.com", "123456")
	if err == nil {
		t.Fatal("expected an error for an empty chain")
	}
}

func TestSimulated_AlwaysAccepts(t *testing.T) {
	s := NewSimulated()

	if err := s.Send(context.Background(), "u-1", "user@example.com", "123456"); err != nil {
		t.Fatalf("expected simulated delivery to accept, got %v", err)
	}
	if s.Name() != "simulated" {
		t.Fatalf("unexpected name %q", s.Name())
	}
}
