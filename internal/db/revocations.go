package db

import (
	"context"

	"github.com/notevault/backend/internal/model"
)

// RevokeTokens inserts the blacklist rows in one transaction, all or nothing.
// Sign-out revokes the access and refresh token together; a window where only
// one of the pair is revoked must not be reachable.
//
// ON CONFLICT DO NOTHING keeps a repeated revocation of the same token id
// from failing the batch; the unique index stays authoritative and a
// subsequent IsRevoked still answers true.
func (db *Postgres) RevokeTokens(ctx context.Context, tokens []model.RevokedToken) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, t := range tokens {
		if _, err = tx.Exec(ctx, `
			INSERT INTO revoked_tokens (token_id, expires_at, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (token_id) DO NOTHING
		`, t.TokenID, t.ExpiresAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (db *Postgres) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)
	`, tokenID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
