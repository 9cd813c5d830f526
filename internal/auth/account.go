// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/opendiary/opendiary/internal/envelope"
)

// Account is a registered student account.
type Account struct {
	ID           uuid.UUID
	Username     string
	Name         string
	Surname      string
	Patronymic   *string
	Email        string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
}

// Registration is the input to Registry.Register.
type Registration struct {
	Username   string
	Name       string
	Surname    string
	Patronymic *string
	Email      string
	Password   string
}

// Validate checks the registration preconditions. An empty password is
// reported as missing credentials; other empty required fields are an
// invalid payload.
func (r Registration) Validate() error {
	if r.Password == "" {
		return oops.Code("AUTH_MISSING_CREDENTIALS").
			Wrapf(envelope.ErrMissingCredentials, "provided password was empty")
	}
	if strings.TrimSpace(r.Username) == "" {
		return oops.Code("AUTH_INVALID_PAYLOAD").
			With("field", "username").
			Wrapf(envelope.ErrInvalidPayload, "`username` parameter was empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return oops.Code("AUTH_INVALID_PAYLOAD").
			With("field", "email").
			Wrapf(envelope.ErrInvalidPayload, "`email` parameter was empty")
	}
	return nil
}

// AccountRepository manages account persistence. Implementations never
// mutate or delete accounts.
type AccountRepository interface {
	// Create stores a new account. Returns ErrAlreadyExists when the
	// username or email is already taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by identity.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByUsername retrieves an account by exact username.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// FindByUsernameOrEmail returns any account whose username or email
	// matches. Returns ErrNotFound if neither is taken.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*Account, error)
}
