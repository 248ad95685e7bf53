package db

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

func (s *DB) InvalidatePriorChallenges(ctx context.Context, userID string, channel entity.Channel) (err error) {
	ctx, span := s.startSpan(ctx, "InvalidatePriorChallenges")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE verification_challenges
		SET invalidated_at = NOW()
		WHERE user_id = $1
		  AND channel = $2
		  AND verified = FALSE
		  AND invalidated_at IS NULL`,
		userID, int16(channel),
	)
	return s.mapError(err)
}

func (s *DB) BumpChallengeAttempts(ctx context.Context, userID string, channel entity.Channel) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "BumpChallengeAttempts")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		UPDATE verification_challenges
		SET attempts = attempts + 1
		WHERE id = (
			SELECT id FROM verification_challenges
			WHERE user_id = $1
			  AND channel = $2
			  AND verified = FALSE
			  AND invalidated_at IS NULL
			  AND expires_at > NOW()
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING attempts`,
		userID, int16(channel),
	)

	var attempts int32
	if err = row.Scan(&attempts); err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

func (s *DB) SetUserChannelVerified(ctx context.Context, userID string, channel entity.Channel, fullyVerified bool) (err error) {
	ctx, span := s.startSpan(ctx, "SetUserChannelVerified")
	defer func() { s.endSpan(span, err) }()

	if channel.IsUnknown() {
		return goerror.ErrNotFound
	}

	column := "email_verified"
	if channel == entity.ChannelMobile {
		column = "mobile_verified"
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO user_verifications (user_id, `+column+`, fully_verified, updated_at)
		VALUES ($1, TRUE, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET `+column+` = TRUE,
		    fully_verified = user_verifications.fully_verified OR EXCLUDED.fully_verified,
		    updated_at = NOW()`,
		userID, fullyVerified,
	)
	return s.mapError(err)
}
