// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/pkg/errutil"
)

// PasswordResetService handles password reset operations.
type PasswordResetService struct {
	accounts AccountRepository
	resets   PasswordResetRepository
	tokens   TokenRepository
	hasher   PasswordHasher
	notifier Notifier
	logger   *slog.Logger
	ttl      time.Duration
	resetURL string
}

// NewPasswordResetService creates a PasswordResetService. Only
// settings.ResetTTL and settings.ResetURL are used.
func NewPasswordResetService(deps Deps, resets PasswordResetRepository, settings Settings) (*PasswordResetService, error) {
	if deps.Accounts == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if resets == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("resets repository is required")
	}
	if deps.Tokens == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("tokens repository is required")
	}
	if deps.Hasher == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if deps.Notifier == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("notifier is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	settings = settings.withDefaults()

	return &PasswordResetService{
		accounts: deps.Accounts,
		resets:   resets,
		tokens:   deps.Tokens,
		hasher:   deps.Hasher,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		ttl:      settings.ResetTTL,
		resetURL: settings.ResetURL,
	}, nil
}

// RequestReset emails a reset link to the account registered under email.
// Unknown emails succeed silently to prevent email enumeration.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").With("operation", "get account by email").Wrap(err)
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").With("operation", "generate token").Wrap(err)
	}

	reset, err := NewPasswordReset(account.ID, hash, time.Now().Add(s.ttl))
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").With("operation", "new password reset").Wrap(err)
	}

	if err := s.resets.Create(ctx, reset); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").With("operation", "create reset").Wrap(err)
	}

	// A delivery failure must answer like an unknown email does.
	if err := s.notifier.SendPasswordReset(ctx, account, s.resetURL+token); err != nil {
		errutil.LogError(s.logger, "failed to send password reset email",
			oops.Code("RESET_SEND_FAILED").With("account_id", account.ID.String()).Wrap(err))
		return nil
	}

	s.logger.InfoContext(ctx, "password reset requested", "account_id", account.ID.String())
	return nil
}

// ValidateToken returns the account ID a reset token belongs to.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_EMPTY").Errorf("reset token cannot be empty")
	}

	reset, err := s.resets.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ulid.ULID{}, oops.Code("RESET_TOKEN_INVALID").Errorf("reset token not found")
		}
		return ulid.ULID{}, oops.Code("RESET_VALIDATE_FAILED").With("operation", "get reset by token hash").Wrap(err)
	}

	if reset.IsExpired() {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_EXPIRED").Errorf("reset token has expired")
	}

	return reset.AccountID, nil
}

// ResetPassword sets a new password using a valid reset token, then
// discards the account's reset requests and revokes its auth tokens.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	accountID, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "get account").Wrap(err)
	}
	if err := ValidatePassword(newPassword, account.Identifier, account.Email); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
	}

	if err := s.accounts.UpdatePassword(ctx, accountID, hashed); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").With("operation", "update password").Wrap(err)
	}

	//nolint:errcheck // Cleanup failure is acceptable; password was already updated
	s.resets.DeleteByAccount(ctx, accountID)
	//nolint:errcheck // Same as above
	s.tokens.DeleteByAccount(ctx, accountID)

	s.logger.InfoContext(ctx, "password reset", "account_id", accountID.String())
	return nil
}

// PurgeExpired deletes expired reset requests.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.resets.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("RESET_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}
