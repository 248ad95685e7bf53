package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

func TestCacheStatus_MasksCode(t *testing.T) {
	fx := newFixture(t)
	code := sendCode(t, fx, "u-1", "user@example.com", "email")

	out, err := fx.uc.CacheStatus(context.Background(), CacheStatusInput{UserID: "u-1", Channel: "email"})
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}

	if !out.Found {
		t.Fatal("expected an entry")
	}
	if out.Status != entity.CacheStatusSent {
		t.Fatalf("expected sent status, got %s", out.Status)
	}
	if out.MaskedCode == code {
		t.Fatal("masked code must differ from the plaintext code")
	}
	if !strings.Contains(out.MaskedCode, "****") {
		t.Fatalf("expected masked middle, got %q", out.MaskedCode)
	}
	if out.MaskedCode[:1] != code[:1] || out.MaskedCode[5:] != code[5:] {
		t.Fatalf("expected first and last digits kept, got %q for %q", out.MaskedCode, code)
	}
}

func TestCacheStatus_Miss(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.uc.CacheStatus(context.Background(), CacheStatusInput{UserID: "u-1", Channel: "email"})
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}

	if out.Found {
		t.Fatalf("expected no entry, got %+v", out)
	}
}

func TestClearCache(t *testing.T) {
	fx := newFixture(t)
	sendCode(t, fx, "u-1", "user@example.com", "email")

	if err := fx.uc.ClearCache(context.Background(), ClearCacheInput{UserID: "u-1", Channel: "email"}); err != nil {
		t.Fatalf("clear cache: %v", err)
	}

	if fx.db.deleteAllCount != 1 {
		t.Fatalf("expected durable challenges dropped, got %d calls", fx.db.deleteAllCount)
	}

	out, err := fx.uc.CacheStatus(context.Background(), CacheStatusInput{UserID: "u-1", Channel: "email"})
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}
	if out.Found {
		t.Fatal("expected entry cleared")
	}
}

func TestMaskCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123456", "1****6"},
		{"42", "42"},
		{"7", "*"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := maskCode(tt.in); got != tt.want {
			t.Errorf("maskCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
