// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/internal/identifier"
)

// MaxDisplayNameLength bounds the display name in characters.
const MaxDisplayNameLength = 60

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Account is a Central Command account.
type Account struct {
	ID             ulid.ULID
	Identifier     string
	DisplayName    string
	Email          string
	PasswordHash   string
	IsConfirmed    bool
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a validated, unconfirmed Account.
// A nil validator uses identifier.Default.
func NewAccount(v identifier.Validator, ident, displayName, email, passwordHash string) (*Account, error) {
	if v == nil {
		v = identifier.Default()
	}
	if err := v.Validate(ident).Err(); err != nil {
		return nil, oops.With("identifier", ident).Wrap(err)
	}
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, oops.Code("ACCOUNT_INVALID_PASSWORD").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Identifier:   ident,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateDisplayName checks that name is non-blank and at most
// MaxDisplayNameLength characters.
func ValidateDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return oops.Code("ACCOUNT_INVALID_DISPLAY_NAME").Errorf("display name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return oops.Code("ACCOUNT_INVALID_DISPLAY_NAME").
			With("max", MaxDisplayNameLength).
			Errorf("display name must be at most %d characters", MaxDisplayNameLength)
	}
	return nil
}

// ValidateEmail checks email syntax.
func ValidateEmail(email string) error {
	if err := fieldValidator().Var(email, "required,email"); err != nil {
		return oops.Code("ACCOUNT_INVALID_EMAIL").With("email", email).Errorf("enter a valid email address")
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked() bool {
	return IsLockedOut(a.LockedUntil)
}

// RecordFailure increments the failure counter and sets lockout if threshold reached.
func (a *Account) RecordFailure() {
	a.FailedAttempts++
	a.LockedUntil = ComputeLockoutTime(a.FailedAttempts)
	a.UpdatedAt = time.Now()
}

// RecordSuccess resets failure counter and lockout.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now()
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrAlreadyExists when the
	// identifier or email is taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByIdentifier retrieves an account by identifier (case-insensitive).
	GetByIdentifier(ctx context.Context, ident string) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update updates an existing account. Returns ErrAlreadyExists when a
	// changed identifier collides with another account.
	Update(ctx context.Context, account *Account) error

	// UpdatePassword updates only the password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// Delete removes an account.
	Delete(ctx context.Context, id ulid.ULID) error
}
