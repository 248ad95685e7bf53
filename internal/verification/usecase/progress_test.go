package usecase

import (
	"context"
	"testing"

	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

func TestProgress_UnknownUser(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.uc.Progress(context.Background(), ProgressInput{UserID: "u-1"})
	if err != nil {
		t.Fatalf("progress: %v", err)
	}

	if out.EmailVerified || out.MobileVerified || out.FullyVerified || out.Complete {
		t.Fatalf("expected unknown user to read unverified, got %+v", out)
	}
	if out.Policy != entity.CompletionMobileRequired {
		t.Fatalf("expected default policy, got %s", out.Policy)
	}
}

func TestProgress_Completeness(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		email    bool
		mobile   bool
		complete bool
	}{
		{"mobile required, email only", "mobile_required", true, false, false},
		{"mobile required, mobile done", "mobile_required", false, true, true},
		{"email required, email done", "email_required", true, false, true},
		{"email required, mobile only", "email_required", false, true, false},
		{"either, email done", "either_required", true, false, true},
		{"either, nothing done", "either_required", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			fx.cfg.strings["modules.verification.completion_policy"] = tt.policy
			fx.db.userVerification = &entity.UserVerification{
				UserID:         "u-1",
				EmailVerified:  tt.email,
				MobileVerified: tt.mobile,
				FullyVerified:  tt.mobile,
			}

			out, err := fx.uc.Progress(context.Background(), ProgressInput{UserID: "u-1"})
			if err != nil {
				t.Fatalf("progress: %v", err)
			}

			if out.Complete != tt.complete {
				t.Fatalf("expected complete=%v, got %+v", tt.complete, out)
			}
			if out.EmailVerified != tt.email || out.MobileVerified != tt.mobile {
				t.Fatalf("unexpected flags %+v", out)
			}
		})
	}
}
