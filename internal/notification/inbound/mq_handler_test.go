package inbound

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/veriflowhq/veriflow/internal/notification/usecase"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/messaging"
	"github.com/veriflowhq/veriflow/internal/shared/event"
)

type fakeUC struct {
	calls []usecase.ConsumeContactVerifiedInput
	err   error
}

func (f *fakeUC) ConsumeContactVerified(_ context.Context, in usecase.ConsumeContactVerifiedInput) error {
	f.calls = append(f.calls, in)
	return f.err
}

type fakeUUID struct{}

func (fakeUUID) Generate() string { return "generated-cid" }

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m *fakeMessage) Body() []byte                  { return m.body }
func (m *fakeMessage) Key() []byte                   { return nil }
func (m *fakeMessage) Headers() []messaging.Header   { return m.headers }
func (m *fakeMessage) Attributes() map[string]string { return nil }
func (m *fakeMessage) ID() string                    { return "msg-1" }
func (m *fakeMessage) Topic() string                 { return event.ContactVerifiedDestination }
func (m *fakeMessage) Subject() string               { return "" }
func (m *fakeMessage) Timestamp() time.Time          { return time.Time{} }
func (m *fakeMessage) Ack(context.Context) error     { return nil }

func TestContactVerifiedNotification(t *testing.T) {
	uc := &fakeUC{}
	h := &MQHandler{uc: uc, uuid: fakeUUID{}, ins: instrument.NewNoop()}

	body, err := json.Marshal(event.ContactVerifiedMessage{
		UserID:        "u-1",
		Channel:       "email",
		Destination:   "user@example.com",
		FullyVerified: true,
		VerifiedAt:    1717236000,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	msg := &fakeMessage{
		body:    body,
		headers: []messaging.Header{{Key: "cID", Value: []byte("cid-123")}},
	}

	if err := h.ContactVerifiedNotification(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(uc.calls) != 1 {
		t.Fatalf("expected one usecase call, got %d", len(uc.calls))
	}
	in := uc.calls[0]
	if in.UserID != "u-1" || in.Channel != "email" || in.Destination != "user@example.com" ||
		!in.FullyVerified || in.VerifiedAt != 1717236000 {
		t.Fatalf("unexpected input %+v", in)
	}
}

func TestContactVerifiedNotification_MalformedBodyDropped(t *testing.T) {
	uc := &fakeUC{}
	h := &MQHandler{uc: uc, uuid: fakeUUID{}, ins: instrument.NewNoop()}

	msg := &fakeMessage{body: []byte("{not json")}

	if err := h.ContactVerifiedNotification(context.Background(), msg); err != nil {
		t.Fatalf("expected malformed bodies dropped without error, got %v", err)
	}
	if len(uc.calls) != 0 {
		t.Fatalf("expected no usecase call, got %d", len(uc.calls))
	}
}
