package usecase

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/pkg/clock"
	"github.com/veriflowhq/veriflow/internal/pkg/config"
	"github.com/veriflowhq/veriflow/internal/pkg/goroutine"
	"github.com/veriflowhq/veriflow/internal/pkg/hash"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/uid"
	"github.com/veriflowhq/veriflow/internal/pkg/validator"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

type OTPRequestedEvent struct {
	UserID      string
	Channel     entity.Channel
	Destination string
	Provider    string
	Delivered   bool
	ExpiresAt   int64
}

type ContactVerifiedEvent struct {
	UserID        string
	Channel       entity.Channel
	Destination   string
	FullyVerified bool
	VerifiedAt    int64
}

type repoMessaging interface {
	PublishOTPRequested(ctx context.Context, msg OTPRequestedEvent) error
	PublishContactVerified(ctx context.Context, msg ContactVerifiedEvent) error
}

type repoDB interface {
	InvalidatePriorChallenges(ctx context.Context, userID string, channel entity.Channel) error
	InsertChallenge(ctx context.Context, ch entity.Challenge) error
	FindLatestActiveChallenge(ctx context.Context, userID, codeHash string, channel entity.Channel) (*entity.Challenge, error)
	BumpChallengeAttempts(ctx context.Context, userID string, channel entity.Channel) (int32, error)
	AtomicVerifyAndUpdateUser(ctx context.Context, challengeID uint64, userID string, channel entity.Channel) error
	SetUserChannelVerified(ctx context.Context, userID string, channel entity.Channel, fullyVerified bool) error
	GetUserVerification(ctx context.Context, userID string) (*entity.UserVerification, error)
	DeleteChallenge(ctx context.Context, id uint64) error
	DeleteAllChallenges(ctx context.Context, userID string, channel entity.Channel) error
}

// notifier dispatches a plaintext code to the channel's provider chain and
// reports which provider accepted it.
type notifier interface {
	Send(ctx context.Context, channel entity.Channel, userID, destination, code string) (provider string, err error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	notifier      notifier
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	cache         *codeCache
	flight        singleflight.Group
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Notifier      notifier
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		notifier:      dep.Notifier,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		cache:         newCodeCache(dep.Clock),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) attemptLimit() int32 {
	if n := s.cfg.GetInt32("modules.verification.attempt_limit"); n > 0 {
		return n
	}
	return 5
}
