// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/opendiary/opendiary/internal/envelope"
)

// Session token configuration.
const (
	SessionEntropyBytes = 32             // random bytes fed to SHA-256
	SessionTokenLength  = 64             // hex-encoded SHA-256 digest
	SessionLifetime     = 48 * time.Hour // fixed lifetime of a new session
)

// Session is a bearer session owned by exactly one account.
type Session struct {
	Token     string
	AccountID uuid.UUID
	ExpiresAt time.Time
}

// IsExpiredAt reports whether the session is expired at t. A session is still
// live at the exact instant of its expiry.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// TokenPrefix returns a short prefix of the token that is safe to log.
func (s *Session) TokenPrefix() string {
	return tokenPrefix(s.Token)
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

// GenerateSessionToken draws SessionEntropyBytes from crypto/rand and returns
// the hex-encoded SHA-256 of them.
func GenerateSessionToken() (string, error) {
	seed := make([]byte, SessionEntropyBytes)
	if _, err := rand.Read(seed); err != nil {
		return "", oops.In(envelope.DomainCrypto).
			Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionEntropyBytes).
			Wrap(err)
	}

	sum := sha256.Sum256(seed)
	return hex.EncodeToString(sum[:]), nil
}

// SessionRepository manages session persistence. It is the only writer of the
// session relation.
type SessionRepository interface {
	// Create stores a new session. Returns ErrAlreadyExists if the account
	// already owns a session.
	Create(ctx context.Context, session *Session) error

	// GetByToken retrieves a session by token.
	GetByToken(ctx context.Context, token string) (*Session, error)

	// GetByAccount retrieves the session owned by an account.
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*Session, error)

	// Delete removes a session by token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteOwned removes the session matching both token and owner and
	// reports whether a row was removed.
	DeleteOwned(ctx context.Context, token string, accountID uuid.UUID) (bool, error)

	// DeleteExpired removes every session that expired before now and
	// returns the count of deleted rows.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
