// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks a new password. ident and email, when given,
// must not equal the password.
func ValidatePassword(password, ident, email string) error {
	if password == "" {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").Errorf("password cannot be empty")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").Errorf("password cannot be entirely numeric")
	}
	lower := strings.ToLower(password)
	if (ident != "" && lower == strings.ToLower(ident)) || (email != "" && lower == strings.ToLower(email)) {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").Errorf("password is too similar to the account details")
	}
	return nil
}
