// Package notify delivers one-time codes through per-channel provider chains.
// Each provider is tried at most once; the first one that accepts the code
// wins.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
	"go.opentelemetry.io/otel/codes"
)

// Sender is a single delivery provider.
type Sender interface {
	Send(ctx context.Context, userID, destination, code string) error
	Name() string
}

// Dispatcher routes a code to the chain configured for its channel.
type Dispatcher struct {
	email  []Sender
	mobile []Sender
	ins    instrument.Instrumentation
}

func NewDispatcher(email, mobile []Sender, ins instrument.Instrumentation) *Dispatcher {
	return &Dispatcher{email: email, mobile: mobile, ins: ins}
}

func (d *Dispatcher) Send(ctx context.Context, channel entity.Channel, userID, destination, code string) (_ string, err error) {
	ctx, span := d.ins.Tracer("verification.outbound.notify").Start(ctx, "Send")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	chain := d.email
	if channel == entity.ChannelMobile {
		chain = d.mobile
	}
	if len(chain) == 0 {
		return "", fmt.Errorf("no sender configured for channel %s", channel.String())
	}

	var errs []error
	for _, snd := range chain {
		if sErr := snd.Send(ctx, userID, destination, code); sErr != nil {
			slog.WarnContext(ctx, "sender failed, trying next provider",
				"provider", snd.Name(), "channel", channel.String(), "error", sErr)
			errs = append(errs, fmt.Errorf("%s: %w", snd.Name(), sErr))
			continue
		}
		return snd.Name(), nil
	}

	return "", errors.Join(errs...)
}
