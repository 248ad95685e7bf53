package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/veriflowhq/veriflow/internal/notification/usecase"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/messaging"
	"github.com/veriflowhq/veriflow/internal/pkg/uid"
	"github.com/veriflowhq/veriflow/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) ContactVerifiedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "ContactVerifiedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: contact verified notification", "msg_body", string(body))

	var payload event.ContactVerifiedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of contact verified notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeContactVerified(ctx, usecase.ConsumeContactVerifiedInput{
		UserID:        payload.UserID,
		Channel:       payload.Channel,
		Destination:   payload.Destination,
		FullyVerified: payload.FullyVerified,
		VerifiedAt:    payload.VerifiedAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume contact verified", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
