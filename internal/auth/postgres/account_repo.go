// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/envelope"
	"github.com/opendiary/opendiary/internal/store"
)

const accountColumns = `id, username, name, surname, patronymic, email, password_hash, created_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db store.Querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db store.Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. A username or email collision returns an
// error wrapping auth.ErrAlreadyExists.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		account.ID.String(),
		account.Username,
		account.Name,
		account.Surname,
		account.Patronymic,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("ACCOUNT_ALREADY_EXISTS").
			With("username", account.Username).
			Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return dbError("ACCOUNT_CREATE_FAILED", "insert account", err)
	}
	if tag.RowsAffected() == 0 {
		return oops.In(envelope.DomainDatabase).
			Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", account.Username).
			Errorf("insert affected no rows")
	}
	return nil
}

// GetByID retrieves an account by identity.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("ACCOUNT_GET_FAILED", "get account by id", err)
	}
	return account, nil
}

// GetByUsername retrieves an account by username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("ACCOUNT_GET_FAILED", "get account by username", err)
	}
	return account, nil
}

// FindByUsernameOrEmail returns any account whose username or email matches.
func (r *AccountRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = $1 OR email = $2
		LIMIT 1
	`, username, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("ACCOUNT_LOOKUP_FAILED", "find account by username or email", err)
	}
	return account, nil
}

// scanAccount scans a single account row. pgx.ErrNoRows is returned as is.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		account auth.Account
		idStr   string
	)
	if err := row.Scan(
		&idStr,
		&account.Username,
		&account.Name,
		&account.Surname,
		&account.Patronymic,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers inspect pgx.ErrNoRows
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, oops.In(envelope.DomainUUID).
			Code("ACCOUNT_ID_CORRUPT").
			With("id", idStr).
			Wrap(err)
	}
	account.ID = id
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// dbError tags a driver failure with the database domain.
func dbError(code, operation string, err error) error {
	return oops.In(envelope.DomainDatabase).
		Code(code).
		With("operation", operation).
		Wrap(err)
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
