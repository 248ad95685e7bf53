package inbound

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/notification/usecase"
)

type uc interface {
	ConsumeContactVerified(ctx context.Context, in usecase.ConsumeContactVerifiedInput) error
}
