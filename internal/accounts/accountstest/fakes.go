// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accountstest

import (
	"context"
	"strings"
	"sync"

	"github.com/samber/oops"
	"github.com/stretchr/testify/mock"

	"github.com/unitystation/centralcommand/internal/accounts"
)

const plainPrefix = "plain$"

// PlainHasher is a PasswordHasher that stores passwords reversibly.
// It keeps service tests fast; never use it outside tests.
type PlainHasher struct {
	// Upgrade makes NeedsUpgrade report true for every hash.
	Upgrade bool
	// HashErr makes Hash fail.
	HashErr error
}

// Hash returns "plain$" + password.
func (h PlainHasher) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	if password == "" {
		return "", accounts.ErrEmptyPassword
	}
	return plainPrefix + password, nil
}

// Verify compares password with a hash produced by Hash.
func (h PlainHasher) Verify(password, hash string) (bool, error) {
	stored, ok := strings.CutPrefix(hash, plainPrefix)
	if !ok {
		return false, oops.Code("ACCOUNT_INVALID_HASH").Errorf("not a plain hash")
	}
	return stored == password, nil
}

// NeedsUpgrade reports h.Upgrade.
func (h PlainHasher) NeedsUpgrade(string) bool {
	return h.Upgrade
}

// Sent is one email captured by a Notifier.
type Sent struct {
	Kind    string
	Account accounts.Account
	Link    string
}

// Email kinds captured by Notifier.
const (
	KindConfirmation = "confirmation"
	KindReset        = "reset"
)

// Notifier records every email it is asked to send.
type Notifier struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (n *Notifier) record(kind string, a *accounts.Account, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, Sent{Kind: kind, Account: *a, Link: link})
	return nil
}

// SendConfirmation records a confirmation email.
func (n *Notifier) SendConfirmation(_ context.Context, a *accounts.Account, link string) error {
	return n.record(KindConfirmation, a, link)
}

// SendPasswordReset records a reset email.
func (n *Notifier) SendPasswordReset(_ context.Context, a *accounts.Account, link string) error {
	return n.record(KindReset, a, link)
}

// Sent returns the captured emails.
func (n *Notifier) Sent() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Sent, len(n.sent))
	copy(out, n.sent)
	return out
}

// Last returns the most recent email of the given kind.
func (n *Notifier) Last(kind string) (Sent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i], true
		}
	}
	return Sent{}, false
}

// MockNotifier is a testify mock of accounts.Notifier.
type MockNotifier struct {
	mock.Mock
}

// SendConfirmation implements accounts.Notifier.
func (m *MockNotifier) SendConfirmation(ctx context.Context, a *accounts.Account, link string) error {
	args := m.Called(ctx, a, link)
	return args.Error(0)
}

// SendPasswordReset implements accounts.Notifier.
func (m *MockNotifier) SendPasswordReset(ctx context.Context, a *accounts.Account, link string) error {
	args := m.Called(ctx, a, link)
	return args.Error(0)
}

// Recorder counts account events.
type Recorder struct {
	mu       sync.Mutex
	Accepted int
	Rejected int
	Regs     int
	Logins   map[string]int
}

// IdentifierChecked implements accounts.Recorder.
func (r *Recorder) IdentifierChecked(accepted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if accepted {
		r.Accepted++
	} else {
		r.Rejected++
	}
}

// Registered implements accounts.Recorder.
func (r *Recorder) Registered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Regs++
}

// LoginAttempt implements accounts.Recorder.
func (r *Recorder) LoginAttempt(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Logins == nil {
		r.Logins = make(map[string]int)
	}
	r.Logins[result]++
}

// LoginCount returns how many logins ended with result.
func (r *Recorder) LoginCount(result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Logins[result]
}

var (
	_ accounts.PasswordHasher = PlainHasher{}
	_ accounts.Notifier       = (*Notifier)(nil)
	_ accounts.Notifier       = (*MockNotifier)(nil)
	_ accounts.Recorder       = (*Recorder)(nil)
)
