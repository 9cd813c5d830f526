// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/auth/postgres"
	"github.com/opendiary/opendiary/internal/envelope"
	"github.com/opendiary/opendiary/pkg/errutil"
)

var sessionCols = []string{"token", "account_id", "expires_at"}

func TestSessionRepository_Create(t *testing.T) {
	ctx := context.Background()
	session := &auth.Session{
		Token:     "3f9a",
		AccountID: uuid.MustParse("0f8b4c2a-7d8e-4b1f-9c3a-1e2d3c4b5a69"),
		ExpiresAt: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
	}

	t.Run("inserts the session", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(session.Token, session.AccountID.String(), session.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, postgres.NewSessionRepository(mock).Create(ctx, session))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second session for the account wraps ErrAlreadyExists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(session.Token, session.AccountID.String(), session.ExpiresAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "sessions_account_id_key"})

		err = postgres.NewSessionRepository(mock).Create(ctx, session)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrAlreadyExists)
	})

	t.Run("foreign key violation is a database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(session.Token, session.AccountID.String(), session.ExpiresAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

		err = postgres.NewSessionRepository(mock).Create(ctx, session)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrAlreadyExists)
		errutil.AssertErrorCode(t, err, "SESSION_CREATE_FAILED")
		assert.Equal(t, envelope.InternalDatabase, envelope.Classify(err).Internal)
	})
}

func TestSessionRepository_GetByToken(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	expires := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM sessions\s+WHERE token = \$1`).
		WithArgs("live").
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow("live", accountID.String(), expires))
	mock.ExpectQuery(`FROM sessions\s+WHERE token = \$1`).
		WithArgs("gone").
		WillReturnRows(pgxmock.NewRows(sessionCols))
	mock.ExpectQuery(`FROM sessions\s+WHERE token = \$1`).
		WithArgs("broken").
		WillReturnError(errors.New("connection reset"))

	repo := postgres.NewSessionRepository(mock)

	got, err := repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, &auth.Session{Token: "live", AccountID: accountID, ExpiresAt: expires}, got)

	_, err = repo.GetByToken(ctx, "gone")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = repo.GetByToken(ctx, "broken")
	require.Error(t, err)
	assert.Equal(t, envelope.InternalDatabase, envelope.Classify(err).Internal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByAccount(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM sessions\s+WHERE account_id = \$1`).
		WithArgs(accountID.String()).
		WillReturnRows(pgxmock.NewRows(sessionCols))

	_, err = postgres.NewSessionRepository(mock).GetByAccount(ctx, accountID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteOwned(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "owner matches", affected: 1, want: true},
		{name: "owner mismatch", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectExec(`DELETE FROM sessions WHERE token = \$1 AND account_id = \$2`).
				WithArgs("tok", owner.String()).
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			removed, err := postgres.NewSessionRepository(mock).DeleteOwned(ctx, "tok", owner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, removed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE token = \$1`).
		WithArgs("absent").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM sessions WHERE token = \$1`).
		WithArgs("tok").
		WillReturnError(errors.New("deadlock detected"))

	repo := postgres.NewSessionRepository(mock)
	require.NoError(t, repo.Delete(ctx, "absent"), "deleting an absent token is not an error")

	err = repo.Delete(ctx, "tok")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SESSION_DELETE_FAILED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := postgres.NewSessionRepository(mock).DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
