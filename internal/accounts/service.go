// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/unitystation/centralcommand/internal/identifier"
	"github.com/unitystation/centralcommand/pkg/errutil"
)

// Settings control token lifetimes and email links.
type Settings struct {
	TokenTTL            time.Duration
	ConfirmationTTL     time.Duration
	ResetTTL            time.Duration
	RequireConfirmation bool
	// ConfirmationURL and ResetURL are prefixes; the token is appended.
	ConfirmationURL string
	ResetURL        string
}

// DefaultSettings returns the stock lifetimes with confirmation required.
func DefaultSettings() Settings {
	return Settings{
		TokenTTL:            DefaultTokenTTL,
		ConfirmationTTL:     DefaultConfirmationTTL,
		ResetTTL:            DefaultResetTTL,
		RequireConfirmation: true,
	}
}

func (s Settings) withDefaults() Settings {
	if s.TokenTTL <= 0 {
		s.TokenTTL = DefaultTokenTTL
	}
	if s.ConfirmationTTL <= 0 {
		s.ConfirmationTTL = DefaultConfirmationTTL
	}
	if s.ResetTTL <= 0 {
		s.ResetTTL = DefaultResetTTL
	}
	return s
}

// Deps are the collaborators of Service. Validator, Recorder and Logger
// are optional.
type Deps struct {
	Accounts      AccountRepository
	Tokens        TokenRepository
	Confirmations ConfirmationRepository
	Hasher        PasswordHasher
	Notifier      Notifier
	Validator     identifier.Validator
	Recorder      Recorder
	Logger        *slog.Logger
}

// Service provides account operations.
type Service struct {
	accounts      AccountRepository
	tokens        TokenRepository
	confirmations ConfirmationRepository
	hasher        PasswordHasher
	notifier      Notifier
	validator     identifier.Validator
	recorder      Recorder
	logger        *slog.Logger
	settings      Settings
}

// NewService creates a Service.
func NewService(deps Deps, settings Settings) (*Service, error) {
	if deps.Accounts == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if deps.Tokens == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("tokens repository is required")
	}
	if deps.Confirmations == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("confirmations repository is required")
	}
	if deps.Hasher == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if deps.Notifier == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("notifier is required")
	}
	if deps.Validator == nil {
		deps.Validator = identifier.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Service{
		accounts:      deps.Accounts,
		tokens:        deps.Tokens,
		confirmations: deps.Confirmations,
		hasher:        deps.Hasher,
		notifier:      deps.Notifier,
		validator:     deps.Validator,
		recorder:      deps.Recorder,
		logger:        deps.Logger,
		settings:      settings.withDefaults(),
	}, nil
}

// dummyPasswordHash is verified when an account doesn't exist so that
// response time does not reveal whether an email is registered.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// CheckIdentifier reports whether ident is syntactically acceptable.
// It never consults storage.
func (s *Service) CheckIdentifier(ident string) identifier.Outcome {
	outcome := s.validator.Validate(ident)
	s.recorder.IdentifierChecked(outcome.OK())
	return outcome
}

// RegisterInput is the data submitted to create an account.
type RegisterInput struct {
	Identifier  string
	DisplayName string
	Email       string
	Password    string
}

// Register creates an account. When confirmation is required a
// confirmation email is sent; failures there are logged, not returned,
// because the account already exists and the email can be re-sent.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if err := s.CheckIdentifier(in.Identifier).Err(); err != nil {
		return nil, oops.With("identifier", in.Identifier).Wrap(err)
	}
	if err := ValidateDisplayName(in.DisplayName); err != nil {
		return nil, err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password, in.Identifier, in.Email); err != nil {
		return nil, err
	}

	if err := s.ensureIdentifierFree(ctx, in.Identifier); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return nil, oops.Code("ACCOUNT_EMAIL_TAKEN").With("email", in.Email).Wrap(ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").With("operation", "get account by email").Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	account, err := NewAccount(s.validator, in.Identifier, in.DisplayName, in.Email, hash)
	if err != nil {
		return nil, err
	}
	account.IsConfirmed = !s.settings.RequireConfirmation

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, oops.Code("ACCOUNT_CONFLICT").With("identifier", in.Identifier).Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_REGISTER_FAILED").With("operation", "create account").Wrap(err)
	}

	s.recorder.Registered()
	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID.String(),
		"identifier", account.Identifier,
		"confirmed", account.IsConfirmed,
	)

	if !account.IsConfirmed {
		if err := s.sendConfirmation(ctx, account); err != nil {
			errutil.LogError(s.logger, "failed to create confirmation", err)
		}
	}

	return account, nil
}

func (s *Service) ensureIdentifierFree(ctx context.Context, ident string) error {
	_, err := s.accounts.GetByIdentifier(ctx, ident)
	if err == nil {
		return oops.Code("ACCOUNT_IDENTIFIER_TAKEN").With("identifier", ident).Wrap(ErrAlreadyExists)
	}
	if !errors.Is(err, ErrNotFound) {
		return oops.Code("ACCOUNT_LOOKUP_FAILED").With("operation", "get account by identifier").Wrap(err)
	}
	return nil
}

// sendConfirmation stores a new confirmation for account and emails its
// link. Delivery failures are logged, not returned: the link is stored
// and the email can be re-sent, and callers must answer the same way for
// known and unknown addresses.
func (s *Service) sendConfirmation(ctx context.Context, account *Account) error {
	token, hash, err := GenerateToken()
	if err != nil {
		return err
	}
	confirmation, err := NewConfirmation(account.ID, hash, time.Now().Add(s.settings.ConfirmationTTL))
	if err != nil {
		return err
	}
	if err := s.confirmations.Create(ctx, confirmation); err != nil {
		return oops.Code("CONFIRMATION_CREATE_FAILED").With("account_id", account.ID.String()).Wrap(err)
	}
	if err := s.notifier.SendConfirmation(ctx, account, s.settings.ConfirmationURL+token); err != nil {
		errutil.LogError(s.logger, "failed to send confirmation email",
			oops.Code("CONFIRMATION_SEND_FAILED").With("account_id", account.ID.String()).Wrap(err))
	}
	return nil
}

// ConfirmAccount marks the account owning token as confirmed and discards
// its pending confirmations.
func (s *Service) ConfirmAccount(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, oops.Code("CONFIRMATION_TOKEN_EMPTY").Errorf("confirmation token cannot be empty")
	}

	confirmation, err := s.confirmations.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("CONFIRMATION_TOKEN_INVALID").Errorf("confirmation token not found")
		}
		return nil, oops.Code("CONFIRMATION_FAILED").With("operation", "get confirmation").Wrap(err)
	}
	if confirmation.IsExpired() {
		return nil, oops.Code("CONFIRMATION_TOKEN_EXPIRED").Errorf("confirmation token has expired")
	}

	account, err := s.accounts.GetByID(ctx, confirmation.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("CONFIRMATION_TOKEN_INVALID").Errorf("confirmation token not found")
		}
		return nil, oops.Code("CONFIRMATION_FAILED").With("operation", "get account").Wrap(err)
	}

	account.IsConfirmed = true
	account.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, oops.Code("CONFIRMATION_FAILED").With("operation", "update account").Wrap(err)
	}

	//nolint:errcheck // Cleanup failure is acceptable; the account is already confirmed
	s.confirmations.DeleteByAccount(ctx, account.ID)

	s.logger.InfoContext(ctx, "account confirmed", "account_id", account.ID.String())
	return account, nil
}

// ResendConfirmation sends a fresh confirmation email. Unknown and already
// confirmed emails succeed silently to prevent email enumeration.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("CONFIRMATION_RESEND_FAILED").With("operation", "get account by email").Wrap(err)
	}
	if account.IsConfirmed {
		return nil
	}

	//nolint:errcheck // Stale confirmations expire on their own
	s.confirmations.DeleteByAccount(ctx, account.ID)

	return s.sendConfirmation(ctx, account)
}

// LoginInput holds login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	Account *Account
	Token   *AuthToken
	// Plaintext is the token to hand to the client. It is not stored.
	Plaintext string
}

// Login verifies credentials and issues an auth token.
// Unknown accounts still run a password verification so that timing does
// not reveal which emails are registered.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	account, lookupErr := s.accounts.GetByEmail(ctx, in.Email)

	targetHash := dummyPasswordHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
		exists = true
	case !errors.Is(lookupErr, ErrNotFound):
		s.recorder.LoginAttempt(LoginInternalFail)
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(in.Password, targetHash)
	if verifyErr != nil && exists {
		s.recorder.LoginAttempt(LoginInternalFail)
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !exists || !valid {
		if exists {
			account.RecordFailure()
			_ = s.accounts.Update(ctx, account) //nolint:errcheck // Best effort
			s.logger.InfoContext(ctx, "login failed",
				"account_id", account.ID.String(),
				"failed_attempts", account.FailedAttempts,
			)
		}
		s.recorder.LoginAttempt(LoginFailed)
		return nil, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	// Lockout is checked after verification to keep timing constant.
	if account.IsLocked() {
		s.recorder.LoginAttempt(LoginLocked)
		return nil, oops.Code("ACCOUNT_LOCKED").
			With("locked_until", account.LockedUntil).
			Errorf("account is temporarily locked")
	}

	if s.settings.RequireConfirmation && !account.IsConfirmed {
		s.recorder.LoginAttempt(LoginUnconfirmed)
		return nil, oops.Code("ACCOUNT_NOT_CONFIRMED").
			With("account_id", account.ID.String()).
			Errorf("account has not been confirmed")
	}

	account.RecordSuccess()
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		if newHash, err := s.hasher.Hash(in.Password); err == nil {
			account.PasswordHash = newHash
		}
	}
	_ = s.accounts.Update(ctx, account) //nolint:errcheck // Login succeeds regardless

	token, hash, err := GenerateToken()
	if err != nil {
		s.recorder.LoginAttempt(LoginInternalFail)
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").With("operation", "generate token").Wrap(err)
	}
	authToken, err := NewAuthToken(account.ID, hash, TokenPrefix(token), time.Now().Add(s.settings.TokenTTL))
	if err != nil {
		s.recorder.LoginAttempt(LoginInternalFail)
		return nil, oops.Code("ACCOUNT_LOGIN_FAILED").With("operation", "create token").Wrap(err)
	}
	if err := s.tokens.Create(ctx, authToken); err != nil {
		s.recorder.LoginAttempt(LoginInternalFail)
		return nil, oops.Code("TOKEN_CREATE_FAILED").With("operation", "persist token").Wrap(err)
	}

	s.recorder.LoginAttempt(LoginSucceeded)
	s.logger.InfoContext(ctx, "account logged in",
		"account_id", account.ID.String(),
		"token_prefix", authToken.Prefix,
	)

	return &LoginResult{Account: account, Token: authToken, Plaintext: token}, nil
}

// Authenticate resolves a plaintext token to its account.
// Expired tokens are deleted and rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*Account, *AuthToken, error) {
	if token == "" {
		return nil, nil, oops.Code("TOKEN_EMPTY").Errorf("token cannot be empty")
	}

	authToken, err := s.tokens.GetByHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, oops.Code("TOKEN_INVALID").Errorf("invalid token")
		}
		return nil, nil, oops.Code("TOKEN_VALIDATE_FAILED").With("operation", "get token by hash").Wrap(err)
	}

	if authToken.IsExpired() {
		//nolint:errcheck // Best effort; expired tokens are also purged periodically
		s.tokens.Delete(ctx, authToken.ID)
		return nil, nil, oops.Code("TOKEN_EXPIRED").Errorf("token has expired")
	}

	account, err := s.accounts.GetByID(ctx, authToken.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, oops.Code("TOKEN_INVALID").Errorf("invalid token")
		}
		return nil, nil, oops.Code("TOKEN_VALIDATE_FAILED").With("operation", "get account").Wrap(err)
	}

	return account, authToken, nil
}

// Logout revokes a single token.
func (s *Service) Logout(ctx context.Context, tokenID ulid.ULID) error {
	if err := s.tokens.Delete(ctx, tokenID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("TOKEN_NOT_FOUND").With("token_id", tokenID.String()).Wrap(err)
		}
		return oops.Code("ACCOUNT_LOGOUT_FAILED").
			With("operation", "delete token").
			With("token_id", tokenID.String()).
			Wrap(err)
	}
	return nil
}

// LogoutAll revokes every token of an account and returns how many were revoked.
func (s *Service) LogoutAll(ctx context.Context, accountID ulid.ULID) (int64, error) {
	n, err := s.tokens.DeleteByAccount(ctx, accountID)
	if err != nil {
		return 0, oops.Code("ACCOUNT_LOGOUT_FAILED").
			With("operation", "delete tokens by account").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return n, nil
}

// UpdateInput carries optional account changes; nil fields are left alone.
type UpdateInput struct {
	Identifier  *string
	DisplayName *string
}

// UpdateAccount renames an account and/or changes its display name.
// A new identifier is validated before its availability is checked.
func (s *Service) UpdateAccount(ctx context.Context, id ulid.ULID, in UpdateInput) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id.String()).Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").With("operation", "get account").Wrap(err)
	}

	if in.Identifier != nil && *in.Identifier != account.Identifier {
		newIdent := *in.Identifier
		if err := s.CheckIdentifier(newIdent).Err(); err != nil {
			return nil, oops.With("identifier", newIdent).Wrap(err)
		}
		if !strings.EqualFold(newIdent, account.Identifier) {
			if err := s.ensureIdentifierFree(ctx, newIdent); err != nil {
				return nil, err
			}
		}
		account.Identifier = newIdent
	}

	if in.DisplayName != nil {
		if err := ValidateDisplayName(*in.DisplayName); err != nil {
			return nil, err
		}
		account.DisplayName = *in.DisplayName
	}

	account.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, oops.Code("ACCOUNT_IDENTIFIER_TAKEN").With("identifier", account.Identifier).Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").With("operation", "update account").Wrap(err)
	}
	return account, nil
}

// PurgeResult counts records removed by PurgeExpired.
type PurgeResult struct {
	Tokens        int64
	Confirmations int64
}

// PurgeExpired deletes expired tokens and confirmations.
func (s *Service) PurgeExpired(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult
	var err error

	result.Tokens, err = s.tokens.DeleteExpired(ctx)
	if err != nil {
		return result, oops.Code("ACCOUNT_PURGE_FAILED").With("operation", "delete expired tokens").Wrap(err)
	}
	result.Confirmations, err = s.confirmations.DeleteExpired(ctx)
	if err != nil {
		return result, oops.Code("ACCOUNT_PURGE_FAILED").With("operation", "delete expired confirmations").Wrap(err)
	}
	return result, nil
}
