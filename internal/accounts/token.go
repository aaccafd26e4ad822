// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token configuration.
const (
	TokenBytes        = 32 // 32 bytes = 64 hex chars
	TokenPrefixLength = 8
	DefaultTokenTTL   = 30 * 24 * time.Hour
)

// AuthToken is an API token issued at login. Only the SHA-256 hash of the
// token is stored; Prefix lets an owner tell their tokens apart.
type AuthToken struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	TokenHash string
	Prefix    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewAuthToken creates a validated AuthToken.
func NewAuthToken(accountID ulid.ULID, tokenHash, prefix string, expiresAt time.Time) (*AuthToken, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &AuthToken{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: tokenHash,
		Prefix:    prefix,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired returns true if the token has expired.
func (t *AuthToken) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the token would be expired at the given time.
func (t *AuthToken) IsExpiredAt(at time.Time) bool {
	return at.After(t.ExpiresAt)
}

// GenerateToken creates a secure random token and its hash.
// The plaintext token is sent to the client; the hash is stored.
func GenerateToken() (token, hash string, err error) {
	buf := make([]byte, TokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken computes the hex SHA-256 of a token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyToken checks in constant time whether token hashes to hash.
func VerifyToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(hash)) == 1
}

// TokenPrefix returns the listing prefix of a plaintext token.
func TokenPrefix(token string) string {
	if len(token) <= TokenPrefixLength {
		return token
	}
	return token[:TokenPrefixLength]
}

// TokenRepository manages auth token persistence.
type TokenRepository interface {
	// Create stores a new token.
	Create(ctx context.Context, token *AuthToken) error

	// GetByHash retrieves a token by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*AuthToken, error)

	// ListByAccount returns all tokens of an account, newest first.
	ListByAccount(ctx context.Context, accountID ulid.ULID) ([]*AuthToken, error)

	// Delete removes a token by ID.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteByAccount removes all tokens of an account and returns the count.
	DeleteByAccount(ctx context.Context, accountID ulid.ULID) (int64, error)

	// DeleteExpired removes expired tokens and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
