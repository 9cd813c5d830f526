// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/auth/postgres"
	"github.com/opendiary/opendiary/internal/envelope"
	"github.com/opendiary/opendiary/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = migrator.Close() })
		Expect(migrator.Down()).To(Succeed())
	})

	It("starts at version zero with everything pending", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal([]uint{1, 2}))
	})

	It("applies, rolls back, and reapplies", func() {
		Expect(migrator.Up()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "second Up is a no-op")
	})
})

var _ = Describe("Session authority on PostgreSQL", Ordered, func() {
	var (
		ctx       context.Context
		pool      *pgxpool.Pool
		registry  *auth.Registry
		authority *auth.Authority
		now       time.Time
	)

	BeforeAll(func() {
		ctx = context.Background()

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, connStr, 3)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		now = time.Now().UTC().Truncate(time.Microsecond)
		clock := func() time.Time { return now }

		hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, MemoryKiB: 8 * 1024, Threads: 1})
		registry, err = auth.NewRegistry(postgres.NewAccountRepository(pool), hasher, auth.WithClock(clock))
		Expect(err).NotTo(HaveOccurred())
		authority, err = auth.NewAuthority(registry, postgres.NewSessionRepository(pool), auth.WithClock(clock))
		Expect(err).NotTo(HaveOccurred())
	})

	It("runs the register, login, validate, logout scenario", func() {
		aliceID, err := registry.Register(ctx, auth.Registration{
			Username: "alice",
			Name:     "Alice",
			Surname:  "Liddell",
			Email:    "alice@x.com",
			Password: "pw1",
		})
		Expect(err).NotTo(HaveOccurred())

		found, err := registry.FindByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal(aliceID))

		s1, err := authority.Login(ctx, aliceID, "pw1")
		Expect(err).NotTo(HaveOccurred())
		Expect(s1.ExpiresAt).To(BeTemporally("~", now.Add(auth.SessionLifetime), time.Millisecond))

		again, err := authority.Login(ctx, aliceID, "pw1")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Token).To(Equal(s1.Token))

		result, err := authority.Validate(ctx, s1.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(auth.AuthSuccess))

		outcome, err := authority.Logout(ctx, s1.Token, aliceID)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Removed).To(BeTrue())

		result, err = authority.Validate(ctx, s1.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(auth.AuthInvalidSession))
	})

	It("rejects a duplicate email through the store constraint path", func() {
		_, err := registry.Register(ctx, auth.Registration{
			Username: "alice-two",
			Name:     "Alice",
			Surname:  "Two",
			Email:    "alice@x.com",
			Password: "pw2",
		})
		Expect(err).To(HaveOccurred())
		Expect(envelope.Classify(err).Kind).To(Equal(envelope.KindUserAlreadyExists))
	})

	It("purges an expired session on validation", func() {
		bobID, err := registry.Register(ctx, auth.Registration{
			Username: "bob",
			Name:     "Bob",
			Surname:  "Builder",
			Email:    "bob@x.com",
			Password: "pw-bob",
		})
		Expect(err).NotTo(HaveOccurred())

		token, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx,
			`INSERT INTO sessions (token, account_id, expires_at) VALUES ($1, $2, $3)`,
			token, bobID, now.Add(-time.Minute))
		Expect(err).NotTo(HaveOccurred())

		result, err := authority.Validate(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(auth.AuthInvalidSession))

		var count int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM sessions WHERE token = $1`, token).Scan(&count)).To(Succeed())
		Expect(count).To(BeZero())
	})
})
