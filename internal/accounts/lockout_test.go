// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitystation/centralcommand/internal/accounts"
)

func TestCheckFailures(t *testing.T) {
	tests := []struct {
		failures  int
		wantDelay time.Duration
		wantLock  bool
	}{
		{0, 0, false},
		{1, time.Second, false},
		{2, 2 * time.Second, false},
		{3, 4 * time.Second, false},
		{6, 32 * time.Second, false},
		{7, 0, true},
		{12, 0, true},
	}
	for _, tt := range tests {
		result := accounts.CheckFailures(tt.failures, nil)
		assert.Equal(t, tt.wantDelay, result.Delay, "failures=%d", tt.failures)
		assert.Equal(t, tt.wantLock, result.IsLockedOut, "failures=%d", tt.failures)
	}
}

func TestCheckFailures_ActiveLockout(t *testing.T) {
	until := time.Now().Add(5 * time.Minute)
	result := accounts.CheckFailures(1, &until)
	assert.True(t, result.IsLockedOut)
	assert.InDelta(t, (5 * time.Minute).Seconds(), result.LockoutRemaining.Seconds(), 2)
}

func TestComputeLockoutTime(t *testing.T) {
	assert.Nil(t, accounts.ComputeLockoutTime(accounts.LockoutThreshold-1))

	lock := accounts.ComputeLockoutTime(accounts.LockoutThreshold)
	require.NotNil(t, lock)
	assert.WithinDuration(t, time.Now().Add(accounts.LockoutDuration), *lock, 2*time.Second)
}

func TestIsLockedOut(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	assert.False(t, accounts.IsLockedOut(nil))
	assert.False(t, accounts.IsLockedOut(&past))
	assert.True(t, accounts.IsLockedOut(&future))
}
