// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accountstest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitystation/centralcommand/internal/accounts"
)

// Fixture wires a Service and PasswordResetService to in-memory fakes.
type Fixture struct {
	Accounts      *AccountStore
	Tokens        *TokenStore
	Confirmations *ConfirmationStore
	Resets        *ResetStore
	Notifier      *Notifier
	Recorder      *Recorder
	Service       *accounts.Service
	Resetter      *accounts.PasswordResetService
}

// Links used by NewFixture.
const (
	ConfirmationURL = "https://example.test/accounts/confirm-account/"
	ResetURL        = "https://example.test/accounts/reset-password/"
)

// NewFixture builds a Fixture with the given confirmation requirement.
func NewFixture(t testing.TB, requireConfirmation bool) *Fixture {
	t.Helper()

	f := &Fixture{
		Accounts:      NewAccountStore(),
		Tokens:        NewTokenStore(),
		Confirmations: NewConfirmationStore(),
		Resets:        NewResetStore(),
		Notifier:      &Notifier{},
		Recorder:      &Recorder{},
	}
	deps := f.Deps()
	settings := accounts.DefaultSettings()
	settings.RequireConfirmation = requireConfirmation
	settings.ConfirmationURL = ConfirmationURL
	settings.ResetURL = ResetURL

	var err error
	f.Service, err = accounts.NewService(deps, settings)
	require.NoError(t, err)
	f.Resetter, err = accounts.NewPasswordResetService(deps, f.Resets, settings)
	require.NoError(t, err)
	return f
}

// Deps returns service dependencies backed by the fixture's fakes.
func (f *Fixture) Deps() accounts.Deps {
	return accounts.Deps{
		Accounts:      f.Accounts,
		Tokens:        f.Tokens,
		Confirmations: f.Confirmations,
		Hasher:        PlainHasher{},
		Notifier:      f.Notifier,
		Recorder:      f.Recorder,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
