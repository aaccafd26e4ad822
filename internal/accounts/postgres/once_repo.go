// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/internal/accounts"
)

// onceRow is a single-use token row. Confirmations and password resets
// share the same shape and differ only in their table.
type onceRow struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type onceTable struct {
	pool  poolIface
	table string
	kind  string
}

func (o onceTable) create(ctx context.Context, r onceRow) error {
	_, err := o.pool.Exec(ctx, `
		INSERT INTO `+o.table+` (id, account_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID.String(), r.AccountID.String(), r.TokenHash, r.ExpiresAt, r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.With("id", r.ID.String()).Wrap(accounts.ErrAlreadyExists)
		}
		return oops.With("operation", "insert "+o.kind).With("account_id", r.AccountID.String()).Wrap(err)
	}
	return nil
}

func (o onceTable) getByTokenHash(ctx context.Context, tokenHash string) (onceRow, error) {
	row := o.pool.QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, created_at
		FROM `+o.table+`
		WHERE token_hash = $1
	`, tokenHash)

	var (
		r                   onceRow
		idStr, accountIDStr string
	)
	err := row.Scan(&idStr, &accountIDStr, &r.TokenHash, &r.ExpiresAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, oops.With("operation", "get "+o.kind+" by token hash").Wrap(accounts.ErrNotFound)
	}
	if err != nil {
		return r, oops.With("operation", "get "+o.kind+" by token hash").Wrap(err)
	}
	if r.ID, err = parseID(idStr, "id"); err != nil {
		return r, err
	}
	if r.AccountID, err = parseID(accountIDStr, "account_id"); err != nil {
		return r, err
	}
	return r, nil
}

func (o onceTable) deleteByAccount(ctx context.Context, accountID ulid.ULID) error {
	_, err := o.pool.Exec(ctx, `DELETE FROM `+o.table+` WHERE account_id = $1`, accountID.String())
	if err != nil {
		return oops.With("operation", "delete "+o.kind+"s by account").With("account_id", accountID.String()).Wrap(err)
	}
	return nil
}

func (o onceTable) deleteExpired(ctx context.Context) (int64, error) {
	result, err := o.pool.Exec(ctx, `DELETE FROM `+o.table+` WHERE expires_at < NOW()`)
	if err != nil {
		return 0, oops.With("operation", "delete expired "+o.kind+"s").Wrap(err)
	}
	return result.RowsAffected(), nil
}

// ConfirmationRepository implements accounts.ConfirmationRepository using PostgreSQL.
type ConfirmationRepository struct {
	t onceTable
}

// NewConfirmationRepository creates a new ConfirmationRepository.
func NewConfirmationRepository(pool poolIface) *ConfirmationRepository {
	return &ConfirmationRepository{t: onceTable{pool: pool, table: "account_confirmations", kind: "confirmation"}}
}

// Create stores a new confirmation.
func (r *ConfirmationRepository) Create(ctx context.Context, c *accounts.Confirmation) error {
	return r.t.create(ctx, onceRow(*c))
}

// GetByTokenHash retrieves a confirmation by token hash.
func (r *ConfirmationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*accounts.Confirmation, error) {
	row, err := r.t.getByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	c := accounts.Confirmation(row)
	return &c, nil
}

// DeleteByAccount removes all confirmations of an account.
func (r *ConfirmationRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) error {
	return r.t.deleteByAccount(ctx, accountID)
}

// DeleteExpired removes expired confirmations.
func (r *ConfirmationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return r.t.deleteExpired(ctx)
}

// ResetRepository implements accounts.PasswordResetRepository using PostgreSQL.
type ResetRepository struct {
	t onceTable
}

// NewResetRepository creates a new ResetRepository.
func NewResetRepository(pool poolIface) *ResetRepository {
	return &ResetRepository{t: onceTable{pool: pool, table: "password_resets", kind: "reset"}}
}

// Create stores a new password reset.
func (r *ResetRepository) Create(ctx context.Context, reset *accounts.PasswordReset) error {
	return r.t.create(ctx, onceRow(*reset))
}

// GetByTokenHash retrieves a password reset by token hash.
func (r *ResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*accounts.PasswordReset, error) {
	row, err := r.t.getByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	reset := accounts.PasswordReset(row)
	return &reset, nil
}

// DeleteByAccount removes all password resets of an account.
func (r *ResetRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) error {
	return r.t.deleteByAccount(ctx, accountID)
}

// DeleteExpired removes expired password resets.
func (r *ResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return r.t.deleteExpired(ctx)
}

// Compile-time interface checks.
var (
	_ accounts.ConfirmationRepository  = (*ConfirmationRepository)(nil)
	_ accounts.PasswordResetRepository = (*ResetRepository)(nil)
)
