package notification

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/notification/inbound"
	"github.com/veriflowhq/veriflow/internal/notification/outbound/email"
	"github.com/veriflowhq/veriflow/internal/notification/usecase"
	"github.com/veriflowhq/veriflow/internal/pkg/clock"
	"github.com/veriflowhq/veriflow/internal/pkg/config"
	"github.com/veriflowhq/veriflow/internal/pkg/goroutine"
	"github.com/veriflowhq/veriflow/internal/pkg/idempotency"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/mail"
	"github.com/veriflowhq/veriflow/internal/pkg/messaging"
	"github.com/veriflowhq/veriflow/internal/pkg/uid"
	"github.com/veriflowhq/veriflow/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	Messaging   messaging.Messaging
	Config      config.Config
	Instrument  instrument.Instrumentation
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Idempotency idempotency.Idempotency
	Mail        mail.Mail
}

func New(dep Dependency) error {
	repoMail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		Config:      dep.Config,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		RepoMail:    repoMail,
		Idempotency: dep.Idempotency,
		Instrument:  dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
