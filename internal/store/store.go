// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

// Package store owns the PostgreSQL connection pool and the schema migrations
// for the account and session relations.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/opendiary/opendiary/internal/envelope"
)

// Querier is the subset of *pgxpool.Pool the repositories use. pgxmock's
// PgxPoolIface satisfies it too.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// connectBackoffBase is the first delay between connection attempts; each
// later attempt doubles it.
const connectBackoffBase = 250 * time.Millisecond

// Connect opens a pool for databaseURL and pings it, retrying the ping with
// exponential backoff up to retries extra times. A malformed URL fails
// immediately.
//
// This is process bootstrap only. Request paths never retry.
func Connect(ctx context.Context, databaseURL string, retries uint64) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.In(envelope.DomainDatabase).
			Code("DB_CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.In(envelope.DomainDatabase).
			Code("DB_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(retries, retry.NewExponential(connectBackoffBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.In(envelope.DomainDatabase).
			Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("host", cfg.ConnConfig.Host).
			With("retries", retries).
			Wrap(err)
	}

	return pool, nil
}

// Compile-time check that the real pool satisfies Querier.
var _ Querier = (*pgxpool.Pool)(nil)
