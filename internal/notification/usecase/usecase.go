package usecase

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/pkg/clock"
	"github.com/veriflowhq/veriflow/internal/pkg/config"
	"github.com/veriflowhq/veriflow/internal/pkg/idempotency"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/mail"
	"github.com/veriflowhq/veriflow/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

// idempotent is the consumer-side slice of the idempotency kit: this module
// only ever wraps a side effect in Exec.
type idempotent interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...idempotency.Option) error
}

type Usecase struct {
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	repoMail  repoMail
	idemp     idempotent
	ins       instrument.Instrumentation
}

type Dependency struct {
	Config      config.Config
	Clock       clock.Clocker
	Validator   validator.Validator
	RepoMail    repoMail
	Idempotency idempotent
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		repoMail:  dep.RepoMail,
		idemp:     dep.Idempotency,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
