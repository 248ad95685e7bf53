package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/pkg/goroutine"
	"github.com/veriflowhq/veriflow/internal/pkg/hash"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/validator"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

type stubConfig struct {
	strings map[string]string
	bools   map[string]bool
	ints    map[string]int
	durs    map[string]time.Duration
}

func (c *stubConfig) Close() error                       { return nil }
func (c *stubConfig) GetSecond(key string) time.Duration { return c.durs[key] }
func (c *stubConfig) GetMinute(key string) time.Duration { return c.durs[key] }
func (c *stubConfig) GetHour(key string) time.Duration   { return c.durs[key] }
func (c *stubConfig) GetBool(key string) bool            { return c.bools[key] }
func (c *stubConfig) GetInt(key string) int              { return c.ints[key] }
func (c *stubConfig) GetInt32(key string) int32          { return int32(c.ints[key]) }
func (c *stubConfig) GetInt64(key string) int64          { return int64(c.ints[key]) }
func (c *stubConfig) GetUint16(key string) uint16        { return uint16(c.ints[key]) }
func (c *stubConfig) GetFloat64(key string) float64      { return float64(c.ints[key]) }
func (c *stubConfig) GetString(key string) string        { return c.strings[key] }
func (c *stubConfig) GetArray(key string) []string       { return nil }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeUID struct{ n uint64 }

func (u *fakeUID) Generate() uint64 { return atomic.AddUint64(&u.n, 1) }

type fakeDB struct {
	mu sync.Mutex

	invalidateCount int
	insertCount     int
	insertErr       error
	inserted        []entity.Challenge
	bumpCount       int
	bumpTotal       int32
	deleteAllCount  int

	findFn        func(userID, codeHash string, channel entity.Channel) (*entity.Challenge, error)
	atomicErr     error
	atomicCount   int
	setVerifiedCh chan struct{}

	userVerification *entity.UserVerification
}

func newFakeDB() *fakeDB {
	return &fakeDB{setVerifiedCh: make(chan struct{}, 8)}
}

func (f *fakeDB) InvalidatePriorChallenges(context.Context, string, entity.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateCount++
	return nil
}

func (f *fakeDB) InsertChallenge(_ context.Context, ch entity.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCount++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, ch)
	return nil
}

func (f *fakeDB) FindLatestActiveChallenge(_ context.Context, userID, codeHash string, channel entity.Channel) (*entity.Challenge, error) {
	f.mu.Lock()
	fn := f.findFn
	f.mu.Unlock()

	if fn == nil {
		return nil, goerror.ErrNotFound
	}
	return fn(userID, codeHash, channel)
}

func (f *fakeDB) BumpChallengeAttempts(context.Context, string, entity.Channel) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumpCount++
	f.bumpTotal++
	return f.bumpTotal, nil
}

func (f *fakeDB) AtomicVerifyAndUpdateUser(context.Context, uint64, string, entity.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.atomicCount++
	return f.atomicErr
}

func (f *fakeDB) SetUserChannelVerified(context.Context, string, entity.Channel, bool) error {
	select {
	case f.setVerifiedCh <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeDB) GetUserVerification(context.Context, string) (*entity.UserVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userVerification == nil {
		return nil, goerror.ErrNotFound
	}
	uv := *f.userVerification
	return &uv, nil
}

func (f *fakeDB) DeleteChallenge(context.Context, uint64) error { return nil }

func (f *fakeDB) DeleteAllChallenges(context.Context, string, entity.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteAllCount++
	return nil
}

type fakeMQ struct {
	mu        sync.Mutex
	requested []OTPRequestedEvent
	verified  []ContactVerifiedEvent
}

func (f *fakeMQ) PublishOTPRequested(_ context.Context, msg OTPRequestedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, msg)
	return nil
}

func (f *fakeMQ) PublishContactVerified(_ context.Context, msg ContactVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, msg)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	provider string
	err      error
	calls    int
	lastCode string
	lastDest string
}

func (f *fakeNotifier) Send(_ context.Context, _ entity.Channel, _, destination, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastCode = code
	f.lastDest = destination
	if f.err != nil {
		return "", f.err
	}
	return f.provider, nil
}

type fixture struct {
	uc       *Usecase
	db       *fakeDB
	mq       *fakeMQ
	notifier *fakeNotifier
	clock    *fakeClock
	cfg      *stubConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to init validator: %v", err)
	}

	cfg := &stubConfig{
		strings: map[string]string{},
		bools:   map[string]bool{},
		ints:    map[string]int{},
		durs:    map[string]time.Duration{},
	}

	clk := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	db := newFakeDB()
	mq := &fakeMQ{}
	notifier := &fakeNotifier{provider: "smtp"}

	uc := New(Dependency{
		RepoDB:        db,
		RepoMessaging: mq,
		Notifier:      notifier,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("test-secret"),
		UID:           &fakeUID{},
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
		Goroutine:     goroutine.NewManager(8),
	})

	return &fixture{uc: uc, db: db, mq: mq, notifier: notifier, clock: clk, cfg: cfg}
}

func asGoError(t *testing.T, err error) *goerror.Error {
	t.Helper()

	gerr, ok := err.(*goerror.Error)
	if !ok {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	return gerr
}
