package db

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

func (s *DB) FindLatestActiveChallenge(ctx context.Context, userID, codeHash string, channel entity.Channel) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "FindLatestActiveChallenge")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT id, user_id, channel, destination, code_hash, expires_at, verified, attempts, created_at
		FROM verification_challenges
		WHERE user_id = $1
		  AND code_hash = $2
		  AND channel = $3
		  AND verified = FALSE
		  AND invalidated_at IS NULL
		  AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, codeHash, int16(channel),
	)

	var (
		id      int64
		chanVal int16
		ch      entity.Challenge
	)
	if err = row.Scan(&id, &ch.UserID, &chanVal, &ch.Destination, &ch.CodeHash,
		&ch.ExpiresAt, &ch.Verified, &ch.Attempts, &ch.CreatedAt); err != nil {
		return nil, s.mapError(err)
	}

	ch.ID = uint64(id)
	ch.Channel = entity.Channel(chanVal)

	return &ch, nil
}

func (s *DB) GetUserVerification(ctx context.Context, userID string) (_ *entity.UserVerification, err error) {
	ctx, span := s.startSpan(ctx, "GetUserVerification")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT user_id, email_verified, mobile_verified, fully_verified
		FROM user_verifications
		WHERE user_id = $1`,
		userID,
	)

	var uv entity.UserVerification
	if err = row.Scan(&uv.UserID, &uv.EmailVerified, &uv.MobileVerified, &uv.FullyVerified); err != nil {
		return nil, s.mapError(err)
	}

	return &uv, nil
}
