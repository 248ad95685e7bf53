package notify

import (
	"context"
	"log/slog"
)

// Simulated is the terminal chain member for environments without a real
// provider. It always accepts the code without sending anything.
type Simulated struct{}

func NewSimulated() *Simulated { return &Simulated{} }

func (*Simulated) Name() string { return "simulated" }

func (*Simulated) Send(ctx context.Context, userID, destination, _ string) error {
	slog.InfoContext(ctx, "simulated code delivery", "user_id", userID, "destination", destination)
	return nil
}
