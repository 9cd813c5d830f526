// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/envelope"
	"github.com/opendiary/opendiary/internal/store"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
// It is the only writer of the sessions table.
type SessionRepository struct {
	db store.Querier
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db store.Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new session. If the account already owns a session, or the
// token collides, the error wraps auth.ErrAlreadyExists.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO sessions (token, account_id, expires_at)
		VALUES ($1, $2, $3)
	`, session.Token, session.AccountID.String(), session.ExpiresAt)
	if isUniqueViolation(err) {
		return oops.Code("SESSION_ALREADY_EXISTS").
			With("account_id", session.AccountID.String()).
			Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.In(envelope.DomainDatabase).
			Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("account_id", session.AccountID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.In(envelope.DomainDatabase).
			Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			Errorf("insert affected no rows")
	}
	return nil
}

// GetByToken retrieves a session by its token.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token, account_id, expires_at
		FROM sessions
		WHERE token = $1
	`, token)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("SESSION_GET_BY_TOKEN_FAILED", "get session by token", err)
	}
	return session, nil
}

// GetByAccount retrieves the session owned by accountID.
func (r *SessionRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token, account_id, expires_at
		FROM sessions
		WHERE account_id = $1
	`, accountID.String())

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("account_id", accountID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("SESSION_GET_BY_ACCOUNT_FAILED", "get session by account", err)
	}
	return session, nil
}

// Delete removes a session by token. A missing token is not an error.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return dbError("SESSION_DELETE_FAILED", "delete session", err)
	}
	return nil
}

// DeleteOwned removes the session only if both token and owner match.
func (r *SessionRepository) DeleteOwned(ctx context.Context, token string, accountID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE token = $1 AND account_id = $2`,
		token, accountID.String(),
	)
	if err != nil {
		return false, oops.In(envelope.DomainDatabase).
			Code("SESSION_DELETE_FAILED").
			With("operation", "delete owned session").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpired removes all sessions that expired before now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, dbError("SESSION_DELETE_EXPIRED_FAILED", "delete expired sessions", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		session      auth.Session
		accountIDStr string
	)
	if err := row.Scan(&session.Token, &accountIDStr, &session.ExpiresAt); err != nil {
		return nil, err //nolint:wrapcheck // callers inspect pgx.ErrNoRows
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return nil, oops.In(envelope.DomainUUID).
			Code("SESSION_ACCOUNT_ID_CORRUPT").
			With("account_id", accountIDStr).
			Wrap(err)
	}
	session.AccountID = accountID
	return &session, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
