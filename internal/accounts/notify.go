// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import "context"

// Notifier delivers account emails. link is the complete URL the recipient
// should open.
type Notifier interface {
	SendConfirmation(ctx context.Context, account *Account, link string) error
	SendPasswordReset(ctx context.Context, account *Account, link string) error
}

// Login results reported to a Recorder.
const (
	LoginSucceeded    = "success"
	LoginFailed       = "invalid_credentials"
	LoginLocked       = "locked"
	LoginUnconfirmed  = "unconfirmed"
	LoginInternalFail = "error"
)

// Recorder receives account events for metrics.
type Recorder interface {
	IdentifierChecked(accepted bool)
	Registered()
	LoginAttempt(result string)
}

type nopRecorder struct{}

func (nopRecorder) IdentifierChecked(bool) {}
func (nopRecorder) Registered()            {}
func (nopRecorder) LoginAttempt(string)    {}
