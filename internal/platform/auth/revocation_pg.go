package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRevocationStore persists revocations in the revoked_tokens table so
// they survive restarts and are shared across instances.
type PGRevocationStore struct {
	pool *pgxpool.Pool
}

func NewPGRevocationStore(pool *pgxpool.Pool) *PGRevocationStore {
	return &PGRevocationStore{pool: pool}
}

func (s *PGRevocationStore) Revoke(ctx context.Context, jti, tokenType string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO revoked_tokens (jti, token_type) VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING`, jti, tokenType)
	return err
}

func (s *PGRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&exists)
	return exists, err
}
