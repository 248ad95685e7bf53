package verification

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/veriflowhq/veriflow/internal/pkg/clock"
	"github.com/veriflowhq/veriflow/internal/pkg/config"
	"github.com/veriflowhq/veriflow/internal/pkg/goroutine"
	"github.com/veriflowhq/veriflow/internal/pkg/hash"
	"github.com/veriflowhq/veriflow/internal/pkg/instrument"
	"github.com/veriflowhq/veriflow/internal/pkg/mail"
	"github.com/veriflowhq/veriflow/internal/pkg/messaging"
	"github.com/veriflowhq/veriflow/internal/pkg/router"
	"github.com/veriflowhq/veriflow/internal/pkg/uid"
	"github.com/veriflowhq/veriflow/internal/pkg/validator"
	"github.com/veriflowhq/veriflow/internal/verification/inbound"
	"github.com/veriflowhq/veriflow/internal/verification/outbound/db"
	"github.com/veriflowhq/veriflow/internal/verification/outbound/mq"
	"github.com/veriflowhq/veriflow/internal/verification/outbound/notify"
	"github.com/veriflowhq/veriflow/internal/verification/usecase"
)

type Dependency struct {
	DBConn     *pgxpool.Pool
	CacheConn  *redis.Client
	Messaging  messaging.Messaging
	Config     config.Config
	Instrument instrument.Instrumentation
	UID        uid.NumberID
	HMAC       hash.Hash
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Router     *router.Router
}

func New(dep Dependency) error {
	dbStore := db.NewDB(dep.DBConn, dep.Instrument)
	repoMQ := mq.NewMessaging(dep.Messaging, dep.Instrument)

	emailChain := buildEmailChain(dep.Config)
	mobileChain := buildMobileChain(dep.Config)
	slog.Info("verification sender chains configured",
		"email", lo.Map(emailChain, func(s notify.Sender, _ int) string { return s.Name() }),
		"mobile", lo.Map(mobileChain, func(s notify.Sender, _ int) string { return s.Name() }),
	)

	dispatcher := notify.NewDispatcher(emailChain, mobileChain, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbStore,
		RepoMessaging: repoMQ,
		Notifier:      dispatcher,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, throttleMiddleware(dep.Config, dep.CacheConn))

	return nil
}

// throttleMiddleware builds the per-IP fixed-window limiter for the public
// send endpoint. Returns nil (no-op) when redis is not configured.
func throttleMiddleware(cfg config.Config, client *redis.Client) router.Middleware {
	if client == nil {
		return nil
	}

	limit := cfg.GetInt("modules.verification.throttle_limit")
	if limit <= 0 {
		limit = 10
	}
	window := cfg.GetSecond("modules.verification.throttle_window_seconds")
	if window <= 0 {
		window = time.Minute
	}

	return router.Throttle(client, limit, window)
}

func buildEmailChain(cfg config.Config) []notify.Sender {
	var chain []notify.Sender

	if url := cfg.GetString("modules.verification.senders.email_hook_url"); url != "" {
		chain = append(chain, notify.NewHook(url, cfg.GetString("modules.verification.senders.email_hook_api_key"), "email"))
	}

	if key := cfg.GetString("modules.verification.senders.sendgrid_api_key"); key != "" {
		sg, err := mail.NewSendGrid(mail.SendGridConfig{
			APIKey:   key,
			From:     cfg.GetString("modules.verification.senders.email_from"),
			FromName: cfg.GetString("modules.verification.senders.email_from_name"),
		})
		if err != nil {
			slog.Warn("skipping sendgrid sender", "error", err)
		} else {
			chain = append(chain, notify.NewEmail("sendgrid", sg))
		}
	}

	if host := cfg.GetString("modules.verification.senders.smtp_host"); host != "" {
		m, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     host,
			Port:     cfg.GetInt("modules.verification.senders.smtp_port"),
			Username: cfg.GetString("modules.verification.senders.smtp_username"),
			Password: cfg.GetString("modules.verification.senders.smtp_password"),
			From:     cfg.GetString("modules.verification.senders.email_from"),
		})
		if err != nil {
			slog.Warn("skipping smtp sender", "error", err)
		} else {
			chain = append(chain, notify.NewEmail("smtp", m))
		}
	}

	return append(chain, notify.NewSimulated())
}

func buildMobileChain(cfg config.Config) []notify.Sender {
	var chain []notify.Sender

	if url := cfg.GetString("modules.verification.senders.mobile_hook_url"); url != "" {
		chain = append(chain, notify.NewHook(url, cfg.GetString("modules.verification.senders.mobile_hook_api_key"), "mobile"))
	}

	if url := cfg.GetString("modules.verification.senders.sms_gateway_url"); url != "" {
		chain = append(chain, notify.NewSMSGateway(
			url,
			cfg.GetString("modules.verification.senders.sms_account_sid"),
			cfg.GetString("modules.verification.senders.sms_auth_token"),
			cfg.GetString("modules.verification.senders.sms_from"),
		))
	}

	return append(chain, notify.NewSimulated())
}
