package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

type ProgressInput struct {
	UserID string `validate:"required,max=64"`
}

type ProgressOutput struct {
	EmailVerified  bool
	MobileVerified bool
	FullyVerified  bool
	Complete       bool
	Policy         entity.CompletionPolicy
}

// Progress returns the per-channel verification flags plus completeness
// against the configured policy. Unknown users read as entirely unverified.
func (s *Usecase) Progress(ctx context.Context, in ProgressInput) (*ProgressOutput, error) {
	ctx, span := s.startSpan(ctx, "Progress")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	policy := entity.ParseCompletionPolicy(s.cfg.GetString("modules.verification.completion_policy"))

	uv, err := s.repoDB.GetUserVerification(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return &ProgressOutput{Policy: policy}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user verification", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProgressOutput{
		EmailVerified:  uv.EmailVerified,
		MobileVerified: uv.MobileVerified,
		FullyVerified:  uv.FullyVerified,
		Complete:       policy.Complete(uv.EmailVerified, uv.MobileVerified),
		Policy:         policy,
	}, nil
}
