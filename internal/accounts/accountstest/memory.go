// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package accountstest provides in-memory test doubles for the accounts package.
package accountstest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/unitystation/centralcommand/internal/accounts"
)

// AccountStore is an in-memory accounts.AccountRepository.
// Setting Err makes every call fail with it.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[ulid.ULID]accounts.Account
	Err      error
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[ulid.ULID]accounts.Account)}
}

func (s *AccountStore) conflicts(a *accounts.Account) bool {
	for id, other := range s.accounts {
		if id == a.ID {
			continue
		}
		if strings.EqualFold(other.Identifier, a.Identifier) || strings.EqualFold(other.Email, a.Email) {
			return true
		}
	}
	return false
}

// Create stores a copy of a.
func (s *AccountStore) Create(_ context.Context, a *accounts.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.accounts[a.ID]; ok || s.conflicts(a) {
		return accounts.ErrAlreadyExists
	}
	s.accounts[a.ID] = *a
	return nil
}

// GetByID returns a copy of the stored account.
func (s *AccountStore) GetByID(_ context.Context, id ulid.ULID) (*accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return &a, nil
}

func (s *AccountStore) find(match func(accounts.Account) bool) (*accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, a := range s.accounts {
		if match(a) {
			found := a
			return &found, nil
		}
	}
	return nil, accounts.ErrNotFound
}

// GetByIdentifier looks an account up case-insensitively.
func (s *AccountStore) GetByIdentifier(_ context.Context, ident string) (*accounts.Account, error) {
	return s.find(func(a accounts.Account) bool { return strings.EqualFold(a.Identifier, ident) })
}

// GetByEmail looks an account up case-insensitively.
func (s *AccountStore) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	return s.find(func(a accounts.Account) bool { return strings.EqualFold(a.Email, email) })
}

// Update replaces the stored account.
func (s *AccountStore) Update(_ context.Context, a *accounts.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.accounts[a.ID]; !ok {
		return accounts.ErrNotFound
	}
	if s.conflicts(a) {
		return accounts.ErrAlreadyExists
	}
	s.accounts[a.ID] = *a
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *AccountStore) UpdatePassword(_ context.Context, id ulid.ULID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = time.Now()
	s.accounts[id] = a
	return nil
}

// Delete removes an account.
func (s *AccountStore) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.accounts[id]; !ok {
		return accounts.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// Put stores a without any checks.
func (s *AccountStore) Put(a *accounts.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = *a
}

// Len returns the number of stored accounts.
func (s *AccountStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// TokenStore is an in-memory accounts.TokenRepository.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[ulid.ULID]accounts.AuthToken
	Err    error
}

// NewTokenStore creates an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[ulid.ULID]accounts.AuthToken)}
}

// Create stores a copy of t.
func (s *TokenStore) Create(_ context.Context, t *accounts.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.tokens[t.ID] = *t
	return nil
}

// GetByHash returns the token with the given hash.
func (s *TokenStore) GetByHash(_ context.Context, hash string) (*accounts.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, t := range s.tokens {
		if t.TokenHash == hash {
			found := t
			return &found, nil
		}
	}
	return nil, accounts.ErrNotFound
}

// ListByAccount returns an account's tokens, newest first.
func (s *TokenStore) ListByAccount(_ context.Context, accountID ulid.ULID) ([]*accounts.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*accounts.AuthToken
	for _, t := range s.tokens {
		if t.AccountID == accountID {
			found := t
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) > 0 })
	return out, nil
}

// Delete removes a token.
func (s *TokenStore) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.tokens[id]; !ok {
		return accounts.ErrNotFound
	}
	delete(s.tokens, id)
	return nil
}

// DeleteByAccount removes all tokens of an account.
func (s *TokenStore) DeleteByAccount(_ context.Context, accountID ulid.ULID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, t := range s.tokens {
		if t.AccountID == accountID {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

// DeleteExpired removes expired tokens.
func (s *TokenStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, t := range s.tokens {
		if t.IsExpired() {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

// Put stores t without any checks.
func (s *TokenStore) Put(t *accounts.AuthToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = *t
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// onceRecord is the shape shared by confirmations and resets.
type onceRecord struct {
	id        ulid.ULID
	accountID ulid.ULID
	hash      string
	expiresAt time.Time
	value     any
}

type onceStore struct {
	mu      sync.Mutex
	records map[ulid.ULID]onceRecord
}

func (s *onceStore) put(r onceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[ulid.ULID]onceRecord)
	}
	s.records[r.id] = r
}

func (s *onceStore) byHash(hash string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.hash == hash {
			return r.value, true
		}
	}
	return nil, false
}

func (s *onceStore) deleteWhere(match func(onceRecord) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.records {
		if match(r) {
			delete(s.records, id)
			n++
		}
	}
	return n
}

func (s *onceStore) countFor(accountID ulid.ULID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.accountID == accountID {
			n++
		}
	}
	return n
}

// ConfirmationStore is an in-memory accounts.ConfirmationRepository.
type ConfirmationStore struct {
	store onceStore
	Err   error
}

// NewConfirmationStore creates an empty ConfirmationStore.
func NewConfirmationStore() *ConfirmationStore {
	return &ConfirmationStore{}
}

// Create stores a copy of c.
func (s *ConfirmationStore) Create(_ context.Context, c *accounts.Confirmation) error {
	if s.Err != nil {
		return s.Err
	}
	s.Put(c)
	return nil
}

// Put stores c without any checks.
func (s *ConfirmationStore) Put(c *accounts.Confirmation) {
	cp := *c
	s.store.put(onceRecord{id: c.ID, accountID: c.AccountID, hash: c.TokenHash, expiresAt: c.ExpiresAt, value: cp})
}

// GetByTokenHash returns the confirmation with the given hash.
func (s *ConfirmationStore) GetByTokenHash(_ context.Context, hash string) (*accounts.Confirmation, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	v, ok := s.store.byHash(hash)
	if !ok {
		return nil, accounts.ErrNotFound
	}
	c := v.(accounts.Confirmation)
	return &c, nil
}

// DeleteByAccount removes an account's confirmations.
func (s *ConfirmationStore) DeleteByAccount(_ context.Context, accountID ulid.ULID) error {
	if s.Err != nil {
		return s.Err
	}
	s.store.deleteWhere(func(r onceRecord) bool { return r.accountID == accountID })
	return nil
}

// DeleteExpired removes expired confirmations.
func (s *ConfirmationStore) DeleteExpired(_ context.Context) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	now := time.Now()
	return s.store.deleteWhere(func(r onceRecord) bool { return now.After(r.expiresAt) }), nil
}

// CountFor returns the number of pending confirmations of an account.
func (s *ConfirmationStore) CountFor(accountID ulid.ULID) int {
	return s.store.countFor(accountID)
}

// ResetStore is an in-memory accounts.PasswordResetRepository.
type ResetStore struct {
	store onceStore
	Err   error
}

// NewResetStore creates an empty ResetStore.
func NewResetStore() *ResetStore {
	return &ResetStore{}
}

// Create stores a copy of r.
func (s *ResetStore) Create(_ context.Context, r *accounts.PasswordReset) error {
	if s.Err != nil {
		return s.Err
	}
	s.Put(r)
	return nil
}

// Put stores r without any checks.
func (s *ResetStore) Put(r *accounts.PasswordReset) {
	cp := *r
	s.store.put(onceRecord{id: r.ID, accountID: r.AccountID, hash: r.TokenHash, expiresAt: r.ExpiresAt, value: cp})
}

// GetByTokenHash returns the reset with the given hash.
func (s *ResetStore) GetByTokenHash(_ context.Context, hash string) (*accounts.PasswordReset, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	v, ok := s.store.byHash(hash)
	if !ok {
		return nil, accounts.ErrNotFound
	}
	r := v.(accounts.PasswordReset)
	return &r, nil
}

// DeleteByAccount removes an account's resets.
func (s *ResetStore) DeleteByAccount(_ context.Context, accountID ulid.ULID) error {
	if s.Err != nil {
		return s.Err
	}
	s.store.deleteWhere(func(r onceRecord) bool { return r.accountID == accountID })
	return nil
}

// DeleteExpired removes expired resets.
func (s *ResetStore) DeleteExpired(_ context.Context) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	now := time.Now()
	return s.store.deleteWhere(func(r onceRecord) bool { return now.After(r.expiresAt) }), nil
}

// CountFor returns the number of pending resets of an account.
func (s *ResetStore) CountFor(accountID ulid.ULID) int {
	return s.store.countFor(accountID)
}

var (
	_ accounts.AccountRepository       = (*AccountStore)(nil)
	_ accounts.TokenRepository         = (*TokenStore)(nil)
	_ accounts.ConfirmationRepository  = (*ConfirmationStore)(nil)
	_ accounts.PasswordResetRepository = (*ResetStore)(nil)
)
