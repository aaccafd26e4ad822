// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultConfirmationTTL is how long an email confirmation link stays valid.
const DefaultConfirmationTTL = 24 * time.Hour

// Confirmation is a pending email confirmation.
type Confirmation struct {
	ID        ulid.ULID
	AccountID ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewConfirmation creates a validated Confirmation.
func NewConfirmation(accountID ulid.ULID, tokenHash string, expiresAt time.Time) (*Confirmation, error) {
	if accountID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("CONFIRMATION_INVALID_ACCOUNT").Errorf("account ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("CONFIRMATION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("CONFIRMATION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &Confirmation{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// IsExpired returns true if the confirmation has expired.
func (c *Confirmation) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// ConfirmationRepository manages email confirmation persistence.
type ConfirmationRepository interface {
	Create(ctx context.Context, confirmation *Confirmation) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*Confirmation, error)
	DeleteByAccount(ctx context.Context, accountID ulid.ULID) error
	DeleteExpired(ctx context.Context) (int64, error)
}
