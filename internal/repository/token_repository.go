package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTokenInvalid is returned for unknown, revoked or expired refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")

// TokenRepo persists refresh token hashes.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owning user id of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return "", ErrTokenInvalid
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all of the user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
