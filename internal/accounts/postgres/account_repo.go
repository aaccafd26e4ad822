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

const accountColumns = `id, identifier, display_name, email, password_hash,
		       is_confirmed, failed_attempts, locked_until, created_at, updated_at`

// AccountRepository implements accounts.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, a *accounts.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, identifier, display_name, email, password_hash,
			is_confirmed, failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		a.ID.String(),
		a.Identifier,
		a.DisplayName,
		a.Email,
		a.PasswordHash,
		a.IsConfirmed,
		a.FailedAttempts,
		a.LockedUntil,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.With("identifier", a.Identifier).With("email", a.Email).Wrap(accounts.ErrAlreadyExists)
		}
		return oops.With("operation", "insert account").With("identifier", a.Identifier).Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*accounts.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())
	return r.get(row, "id", id.String())
}

// GetByIdentifier retrieves an account by identifier (case-insensitive).
func (r *AccountRepository) GetByIdentifier(ctx context.Context, ident string) (*accounts.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(identifier) = LOWER($1)`, ident)
	return r.get(row, "identifier", ident)
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	return r.get(row, "email", email)
}

func (r *AccountRepository) get(row pgx.Row, key, value string) (*accounts.Account, error) {
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With(key, value).Wrap(accounts.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get account by "+key).With(key, value).Wrap(err)
	}
	return a, nil
}

// Update updates an existing account.
func (r *AccountRepository) Update(ctx context.Context, a *accounts.Account) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			identifier = $2,
			display_name = $3,
			email = $4,
			password_hash = $5,
			is_confirmed = $6,
			failed_attempts = $7,
			locked_until = $8,
			updated_at = $9
		WHERE id = $1
	`,
		a.ID.String(),
		a.Identifier,
		a.DisplayName,
		a.Email,
		a.PasswordHash,
		a.IsConfirmed,
		a.FailedAttempts,
		a.LockedUntil,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.With("id", a.ID.String()).With("identifier", a.Identifier).Wrap(accounts.ErrAlreadyExists)
		}
		return oops.With("operation", "update account").With("id", a.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", a.ID.String()).Wrap(accounts.ErrNotFound)
	}
	return nil
}

// UpdatePassword updates only the password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now())
	if err != nil {
		return oops.With("operation", "update password").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(accounts.ErrNotFound)
	}
	return nil
}

// Delete removes an account. Its tokens, confirmations and resets cascade.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id.String())
	if err != nil {
		return oops.With("operation", "delete account").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(accounts.ErrNotFound)
	}
	return nil
}

// scanAccount scans a single row into an Account.
// pgx.ErrNoRows is returned unwrapped for callers to handle.
func scanAccount(row pgx.Row) (*accounts.Account, error) {
	var (
		idStr string
		a     accounts.Account
	)
	err := row.Scan(
		&idStr,
		&a.Identifier,
		&a.DisplayName,
		&a.Email,
		&a.PasswordHash,
		&a.IsConfirmed,
		&a.FailedAttempts,
		&a.LockedUntil,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.With("operation", "scan account").Wrap(err)
	}

	a.ID, err = parseID(idStr, "id")
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Compile-time interface check.
var _ accounts.AccountRepository = (*AccountRepository)(nil)
