package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/veriflowhq/veriflow/internal/pkg/config"
	"github.com/veriflowhq/veriflow/internal/pkg/goroutine"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/messaging"
	"github.com/veriflowhq/veriflow/internal/pkg/uid"
	"github.com/veriflowhq/veriflow/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.ContactVerifiedConsumerNotification,
			topic:   event.ContactVerifiedDestination,
			handler: mqHandler.ContactVerifiedNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.name),
					messaging.WithQueueGroup(consumer.name),
					messaging.WithGroup(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
