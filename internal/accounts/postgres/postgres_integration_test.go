// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/unitystation/centralcommand/internal/accounts"
	"github.com/unitystation/centralcommand/internal/accounts/postgres"
)

func newAccount(ident, email string) *accounts.Account {
	a, err := accounts.NewAccount(nil, ident, "Crew", email, "hash")
	Expect(err).NotTo(HaveOccurred())
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Microsecond)
	a.UpdatedAt = a.CreatedAt
	return a
}

var _ = Describe("Account repositories", func() {
	var (
		ctx      context.Context
		accts    *postgres.AccountRepository
		tokens   *postgres.TokenRepository
		confirms *postgres.ConfirmationRepository
		resets   *postgres.ResetRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		accts = postgres.NewAccountRepository(testPool)
		tokens = postgres.NewTokenRepository(testPool)
		confirms = postgres.NewConfirmationRepository(testPool)
		resets = postgres.NewResetRepository(testPool)
	})

	Describe("AccountRepository", func() {
		It("round-trips an account", func() {
			a := newAccount("captain_ahab", "ahab@pequod.test")
			Expect(accts.Create(ctx, a)).To(Succeed())

			got, err := accts.GetByID(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Identifier).To(Equal("captain_ahab"))
			Expect(got.CreatedAt).To(BeTemporally("==", a.CreatedAt))
			Expect(got.LockedUntil).To(BeNil())
		})

		It("looks identifiers and emails up case-insensitively", func() {
			a := newAccount("captain_ahab", "ahab@pequod.test")
			Expect(accts.Create(ctx, a)).To(Succeed())

			byIdent, err := accts.GetByIdentifier(ctx, "CAPTAIN_AHAB")
			Expect(err).NotTo(HaveOccurred())
			Expect(byIdent.ID).To(Equal(a.ID))

			byEmail, err := accts.GetByEmail(ctx, "Ahab@Pequod.Test")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(a.ID))
		})

		It("rejects identifiers differing only in case", func() {
			Expect(accts.Create(ctx, newAccount("captain_ahab", "ahab@pequod.test"))).To(Succeed())
			err := accts.Create(ctx, newAccount("Captain_Ahab", "other@pequod.test"))
			Expect(err).To(MatchError(accounts.ErrAlreadyExists))
		})

		It("rejects duplicate emails", func() {
			Expect(accts.Create(ctx, newAccount("ahab", "ahab@pequod.test"))).To(Succeed())
			err := accts.Create(ctx, newAccount("starbuck", "AHAB@pequod.test"))
			Expect(err).To(MatchError(accounts.ErrAlreadyExists))
		})

		It("persists lockout state", func() {
			a := newAccount("ishmael", "ishmael@pequod.test")
			Expect(accts.Create(ctx, a)).To(Succeed())

			for range accounts.LockoutThreshold {
				a.RecordFailure()
			}
			Expect(accts.Update(ctx, a)).To(Succeed())

			got, err := accts.GetByID(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.FailedAttempts).To(Equal(accounts.LockoutThreshold))
			Expect(got.IsLocked()).To(BeTrue())
		})

		It("reports missing accounts", func() {
			a := newAccount("queequeg", "queequeg@pequod.test")
			_, err := accts.GetByID(ctx, a.ID)
			Expect(err).To(MatchError(accounts.ErrNotFound))
			Expect(accts.Update(ctx, a)).To(MatchError(accounts.ErrNotFound))
			Expect(accts.UpdatePassword(ctx, a.ID, "x")).To(MatchError(accounts.ErrNotFound))
			Expect(accts.Delete(ctx, a.ID)).To(MatchError(accounts.ErrNotFound))
		})
	})

	Describe("TokenRepository", func() {
		It("stores, lists and purges tokens", func() {
			a := newAccount("starbuck", "starbuck@pequod.test")
			Expect(accts.Create(ctx, a)).To(Succeed())

			plain, hash, err := accounts.GenerateToken()
			Expect(err).NotTo(HaveOccurred())
			live, err := accounts.NewAuthToken(a.ID, hash, accounts.TokenPrefix(plain), time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.Create(ctx, live)).To(Succeed())

			_, staleHash, err := accounts.GenerateToken()
			Expect(err).NotTo(HaveOccurred())
			stale, err := accounts.NewAuthToken(a.ID, staleHash, "stale000", time.Now().Add(-time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.Create(ctx, stale)).To(Succeed())

			got, err := tokens.GetByHash(ctx, hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(live.ID))

			list, err := tokens.ListByAccount(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))

			n, err := tokens.DeleteExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			n, err = tokens.DeleteByAccount(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))
		})

		It("cascades when the account is deleted", func() {
			a := newAccount("flask", "flask@pequod.test")
			Expect(accts.Create(ctx, a)).To(Succeed())
			_, hash, err := accounts.GenerateToken()
			Expect(err).NotTo(HaveOccurred())
			tok, err := accounts.NewAuthToken(a.ID, hash, "prefix00", time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.Create(ctx, tok)).To(Succeed())

			Expect(accts.Delete(ctx, a.ID)).To(Succeed())
			_, err = tokens.GetByHash(ctx, hash)
			Expect(err).To(MatchError(accounts.ErrNotFound))
		})
	})

	Describe("single-use tokens", func() {
		It("handles confirmations and resets", func() {
			a := newAccount("stubb", "stubb@pequod.test")
			Expect(accts.Create(ctx, a)).To(Succeed())

			c, err := accounts.NewConfirmation(a.ID, "confirm-hash", time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(confirms.Create(ctx, c)).To(Succeed())
			gotC, err := confirms.GetByTokenHash(ctx, "confirm-hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(gotC.AccountID).To(Equal(a.ID))
			Expect(confirms.DeleteByAccount(ctx, a.ID)).To(Succeed())
			_, err = confirms.GetByTokenHash(ctx, "confirm-hash")
			Expect(err).To(MatchError(accounts.ErrNotFound))

			r, err := accounts.NewPasswordReset(a.ID, "reset-hash", time.Now().Add(-time.Minute))
			Expect(err).NotTo(HaveOccurred())
			Expect(resets.Create(ctx, r)).To(Succeed())
			n, err := resets.DeleteExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))
		})
	})
})
