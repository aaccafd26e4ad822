// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/internal/accounts"
)

// TokenRepository implements accounts.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool poolIface
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(pool poolIface) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Create stores a new token.
func (r *TokenRepository) Create(ctx context.Context, t *accounts.AuthToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auth_tokens (id, account_id, token_hash, prefix, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID.String(), t.AccountID.String(), t.TokenHash, t.Prefix, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.With("id", t.ID.String()).Wrap(accounts.ErrAlreadyExists)
		}
		return oops.With("operation", "insert token").With("account_id", t.AccountID.String()).Wrap(err)
	}
	return nil
}

// GetByHash retrieves a token by its hash.
func (r *TokenRepository) GetByHash(ctx context.Context, tokenHash string) (*accounts.AuthToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, token_hash, prefix, expires_at, created_at
		FROM auth_tokens
		WHERE token_hash = $1
	`, tokenHash)

	t, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("operation", "get token by hash").Wrap(accounts.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get token by hash").Wrap(err)
	}
	return t, nil
}

// ListByAccount returns all tokens of an account, newest first.
func (r *TokenRepository) ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*accounts.AuthToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, token_hash, prefix, expires_at, created_at
		FROM auth_tokens
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`, accountID.String())
	if err != nil {
		return nil, oops.With("operation", "list tokens").With("account_id", accountID.String()).Wrap(err)
	}
	defer rows.Close()

	var tokens []*accounts.AuthToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate tokens").Wrap(err)
	}
	return tokens, nil
}

// Delete removes a token by ID.
func (r *TokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE id = $1`, id.String())
	if err != nil {
		return oops.With("operation", "delete token").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(accounts.ErrNotFound)
	}
	return nil
}

// DeleteByAccount removes all tokens of an account.
func (r *TokenRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE account_id = $1`, accountID.String())
	if err != nil {
		return 0, oops.With("operation", "delete tokens by account").With("account_id", accountID.String()).Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes expired tokens.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, oops.With("operation", "delete expired tokens").Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*accounts.AuthToken, error) {
	var (
		idStr, accountIDStr string
		t                   accounts.AuthToken
	)
	err := row.Scan(&idStr, &accountIDStr, &t.TokenHash, &t.Prefix, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.With("operation", "scan token").Wrap(err)
	}
	if t.ID, err = parseID(idStr, "id"); err != nil {
		return nil, err
	}
	if t.AccountID, err = parseID(accountIDStr, "account_id"); err != nil {
		return nil, err
	}
	return &t, nil
}

// Compile-time interface check.
var _ accounts.TokenRepository = (*TokenRepository)(nil)
