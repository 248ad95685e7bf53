package usecase

import (
	"testing"
	"time"

	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

func TestCodeCache_SweepsExpiredOnGet(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	c := newCodeCache(clk)

	c.Put("u-1", entity.ChannelEmail, entity.CacheEntry{
		Code:       "123456",
		Status:     entity.CacheStatusSent,
		ExpiresAt:  clk.Now().Add(10 * time.Minute),
		LastSentAt: clk.Now(),
	})

	entry, ok := c.Get("u-1", entity.ChannelEmail)
	if !ok || entry.Status != entity.CacheStatusSent {
		t.Fatalf("expected live entry, got %+v ok=%v", entry, ok)
	}

	clk.Advance(10 * time.Minute)

	entry, ok = c.Get("u-1", entity.ChannelEmail)
	if !ok {
		t.Fatal("expected entry to survive the sweep")
	}
	if entry.Status != entity.CacheStatusExpired {
		t.Fatalf("expected expired status, got %s", entry.Status)
	}
}

func TestCodeCache_SweepSkipsVerified(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	c := newCodeCache(clk)

	c.Put("u-1", entity.ChannelEmail, entity.CacheEntry{
		Code:      "123456",
		Status:    entity.CacheStatusVerified,
		ExpiresAt: clk.Now().Add(-time.Minute),
	})

	entry, _ := c.Get("u-1", entity.ChannelEmail)
	if entry.Status != entity.CacheStatusVerified {
		t.Fatalf("verified entries must not be swept, got %s", entry.Status)
	}
}

func TestCodeCache_BumpAttempts(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	c := newCodeCache(clk)

	if n := c.BumpAttempts("u-1", entity.ChannelEmail, 5); n != 0 {
		t.Fatalf("expected 0 for missing entry, got %d", n)
	}

	c.Put("u-1", entity.ChannelEmail, entity.CacheEntry{
		Code:      "123456",
		Status:    entity.CacheStatusSent,
		ExpiresAt: clk.Now().Add(10 * time.Minute),
	})

	for i := 1; i <= 4; i++ {
		if n := c.BumpAttempts("u-1", entity.ChannelEmail, 5); n != int32(i) {
			t.Fatalf("expected counter %d, got %d", i, n)
		}
	}

	entry, _ := c.Get("u-1", entity.ChannelEmail)
	if entry.Status != entity.CacheStatusSent {
		t.Fatalf("expected entry still live below the limit, got %s", entry.Status)
	}

	c.BumpAttempts("u-1", entity.ChannelEmail, 5)

	entry, _ = c.Get("u-1", entity.ChannelEmail)
	if entry.Status != entity.CacheStatusExpired {
		t.Fatalf("expected entry burned at the limit, got %s", entry.Status)
	}
}

func TestCodeCache_ChannelsAreIsolated(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	c := newCodeCache(clk)

	c.Put("u-1", entity.ChannelEmail, entity.CacheEntry{Code: "111111", Status: entity.CacheStatusSent,
		ExpiresAt: clk.Now().Add(10 * time.Minute)})
	c.Put("u-1", entity.ChannelMobile, entity.CacheEntry{Code: "222222", Status: entity.CacheStatusSent,
		ExpiresAt: clk.Now().Add(10 * time.Minute)})

	c.Delete("u-1", entity.ChannelEmail)

	if _, ok := c.Get("u-1", entity.ChannelEmail); ok {
		t.Fatal("expected email entry deleted")
	}
	if entry, ok := c.Get("u-1", entity.ChannelMobile); !ok || entry.Code != "222222" {
		t.Fatalf("expected mobile entry untouched, got %+v ok=%v", entry, ok)
	}
}
