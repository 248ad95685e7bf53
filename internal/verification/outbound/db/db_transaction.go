package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

// AtomicVerifyAndUpdateUser marks the challenge verified and flips the user's
// channel flag in one transaction. A mobile success also sets the overall
// fully-verified flag.
func (s *DB) AtomicVerifyAndUpdateUser(ctx context.Context, challengeID uint64, userID string, channel entity.Channel) (err error) {
	ctx, span := s.startSpan(ctx, "AtomicVerifyAndUpdateUser")
	defer func() { s.endSpan(span, err) }()

	if channel.IsUnknown() {
		return goerror.ErrNotFound
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE verification_challenges
		SET verified = TRUE,
		    attempts = attempts + 1
		WHERE id = $1
		  AND user_id = $2
		  AND verified = FALSE
		  AND invalidated_at IS NULL
		  AND expires_at > NOW()`,
		int64(challengeID), userID,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	column := "email_verified"
	if channel == entity.ChannelMobile {
		column = "mobile_verified"
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO user_verifications (user_id, `+column+`, fully_verified, updated_at)
		VALUES ($1, TRUE, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET `+column+` = TRUE,
		    fully_verified = user_verifications.fully_verified OR EXCLUDED.fully_verified,
		    updated_at = NOW()`,
		userID, channel == entity.ChannelMobile,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
