// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitystation/centralcommand/internal/accounts"
	"github.com/unitystation/centralcommand/internal/identifier"
	"github.com/unitystation/centralcommand/pkg/errutil"
)

func TestNewAccount(t *testing.T) {
	t.Run("valid account", func(t *testing.T) {
		a, err := accounts.NewAccount(nil, "captain_ahab", "Ahab", "ahab@pequod.test", "hash")
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID.String())
		assert.Equal(t, "captain_ahab", a.Identifier)
		assert.False(t, a.IsConfirmed)
		assert.Zero(t, a.FailedAttempts)
		assert.Nil(t, a.LockedUntil)
		assert.False(t, a.CreatedAt.IsZero())
	})

	tests := []struct {
		name        string
		ident       string
		displayName string
		email       string
		hash        string
		wantCode    string
	}{
		{"short identifier", "ab", "Ahab", "ahab@pequod.test", "hash", identifier.CodeInvalidFormat},
		{"non-ascii identifier", "café", "Ahab", "ahab@pequod.test", "hash", identifier.CodeInvalidFormat},
		{"blank display name", "ahab", "   ", "ahab@pequod.test", "hash", "ACCOUNT_INVALID_DISPLAY_NAME"},
		{"long display name", "ahab", strings.Repeat("a", accounts.MaxDisplayNameLength+1), "ahab@pequod.test", "hash", "ACCOUNT_INVALID_DISPLAY_NAME"},
		{"bad email", "ahab", "Ahab", "not-an-email", "hash", "ACCOUNT_INVALID_EMAIL"},
		{"empty email", "ahab", "Ahab", "", "hash", "ACCOUNT_INVALID_EMAIL"},
		{"empty hash", "ahab", "Ahab", "ahab@pequod.test", "", "ACCOUNT_INVALID_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := accounts.NewAccount(nil, tt.ident, tt.displayName, tt.email, tt.hash)
			require.Error(t, err)
			assert.Nil(t, a)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}

	t.Run("custom validator is consulted", func(t *testing.T) {
		strict := identifier.ValidatorFunc(func(s string) identifier.Outcome {
			if s == "admin" {
				return identifier.Outcome{Status: identifier.StatusRejected, Reason: "reserved"}
			}
			return identifier.Validate(s)
		})
		_, err := accounts.NewAccount(strict, "admin", "Admin", "admin@pequod.test", "hash")
		require.Error(t, err)
		assert.ErrorIs(t, err, identifier.ErrInvalidFormat)
		assert.Contains(t, err.Error(), "reserved")
	})
}

func TestValidateDisplayName_MaxLengthCountsCharacters(t *testing.T) {
	assert.NoError(t, accounts.ValidateDisplayName(strings.Repeat("é", accounts.MaxDisplayNameLength)))
}

func TestAccount_FailureTracking(t *testing.T) {
	a, err := accounts.NewAccount(nil, "ishmael", "Ishmael", "ishmael@pequod.test", "hash")
	require.NoError(t, err)

	for i := 1; i < accounts.LockoutThreshold; i++ {
		a.RecordFailure()
		assert.Equal(t, i, a.FailedAttempts)
		assert.False(t, a.IsLocked())
	}

	a.RecordFailure()
	assert.True(t, a.IsLocked())
	require.NotNil(t, a.LockedUntil)
	assert.WithinDuration(t, time.Now().Add(accounts.LockoutDuration), *a.LockedUntil, 2*time.Second)

	a.RecordSuccess()
	assert.Zero(t, a.FailedAttempts)
	assert.Nil(t, a.LockedUntil)
	assert.False(t, a.IsLocked())
}
