// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitystation/centralcommand/internal/accounts"
	"github.com/unitystation/centralcommand/pkg/errutil"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"good password", "correct-horse", false},
		{"empty", "", true},
		{"too short", "abc1234", true},
		{"exactly minimum", "abcd1234", false},
		{"all digits", "1234567890", true},
		{"same as identifier", "Captain_Ahab", true},
		{"same as email", "ahab@pequod.test", true},
		{"multibyte counts runes", "pässwörd", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounts.ValidatePassword(tt.password, "captain_ahab", "ahab@pequod.test")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "ACCOUNT_INVALID_PASSWORD")
		})
	}
}
