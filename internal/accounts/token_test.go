// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitystation/centralcommand/internal/accounts"
	"github.com/unitystation/centralcommand/pkg/errutil"
)

func TestGenerateToken(t *testing.T) {
	token, hash, err := accounts.GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, accounts.TokenBytes*2)
	assert.Len(t, hash, 64)
	assert.Equal(t, accounts.HashToken(token), hash)
	assert.NotEqual(t, token, hash)

	other, _, err := accounts.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestVerifyToken(t *testing.T) {
	token, hash, err := accounts.GenerateToken()
	require.NoError(t, err)

	assert.True(t, accounts.VerifyToken(token, hash))
	assert.False(t, accounts.VerifyToken(token+"x", hash))
	assert.False(t, accounts.VerifyToken("", hash))
	assert.False(t, accounts.VerifyToken(token, ""))
}

func TestTokenPrefix(t *testing.T) {
	assert.Equal(t, "abcdef01", accounts.TokenPrefix("abcdef0123456789"))
	assert.Equal(t, "abc", accounts.TokenPrefix("abc"))
}

func TestNewAuthToken(t *testing.T) {
	accountID := ulid.Make()
	expires := time.Now().Add(time.Hour)

	t.Run("valid token", func(t *testing.T) {
		tok, err := accounts.NewAuthToken(accountID, "hash", "prefix00", expires)
		require.NoError(t, err)
		assert.Equal(t, accountID, tok.AccountID)
		assert.Equal(t, "prefix00", tok.Prefix)
		assert.False(t, tok.IsExpired())
		assert.True(t, tok.IsExpiredAt(expires.Add(time.Second)))
	})

	tests := []struct {
		name      string
		accountID ulid.ULID
		hash      string
		expires   time.Time
		wantCode  string
	}{
		{"zero account", ulid.ULID{}, "hash", expires, "TOKEN_INVALID_ACCOUNT"},
		{"empty hash", accountID, "", expires, "TOKEN_INVALID_HASH"},
		{"zero expiry", accountID, "hash", time.Time{}, "TOKEN_INVALID_EXPIRY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.NewAuthToken(tt.accountID, tt.hash, "p", tt.expires)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestNewConfirmation(t *testing.T) {
	accountID := ulid.Make()

	c, err := accounts.NewConfirmation(accountID, "hash", time.Now().Add(accounts.DefaultConfirmationTTL))
	require.NoError(t, err)
	assert.False(t, c.IsExpired())

	expired, err := accounts.NewConfirmation(accountID, "hash", time.Now().Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, expired.IsExpired())

	_, err = accounts.NewConfirmation(ulid.ULID{}, "hash", time.Now())
	errutil.AssertErrorCode(t, err, "CONFIRMATION_INVALID_ACCOUNT")
	_, err = accounts.NewConfirmation(accountID, "", time.Now())
	errutil.AssertErrorCode(t, err, "CONFIRMATION_INVALID_HASH")
	_, err = accounts.NewConfirmation(accountID, "hash", time.Time{})
	errutil.AssertErrorCode(t, err, "CONFIRMATION_INVALID_EXPIRY")
}

func TestNewPasswordReset(t *testing.T) {
	accountID := ulid.Make()

	r, err := accounts.NewPasswordReset(accountID, "hash", time.Now().Add(accounts.DefaultResetTTL))
	require.NoError(t, err)
	assert.False(t, r.IsExpired())

	_, err = accounts.NewPasswordReset(ulid.ULID{}, "hash", time.Now())
	errutil.AssertErrorCode(t, err, "RESET_INVALID_ACCOUNT")
	_, err = accounts.NewPasswordReset(accountID, "", time.Now())
	errutil.AssertErrorCode(t, err, "RESET_INVALID_HASH")
	_, err = accounts.NewPasswordReset(accountID, "hash", time.Time{})
	errutil.AssertErrorCode(t, err, "RESET_INVALID_EXPIRY")
}
