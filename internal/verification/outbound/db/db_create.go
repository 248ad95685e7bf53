package db

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

func (s *DB) InsertChallenge(ctx context.Context, ch entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "InsertChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO verification_challenges
			(id, user_id, channel, destination, code_hash, expires_at, verified, attempts, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, FALSE, 0, $7)`,
		int64(ch.ID), ch.UserID, int16(ch.Channel), ch.Destination, ch.CodeHash, ch.ExpiresAt, ch.CreatedAt,
	)
	return s.mapError(err)
}
