// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opendiary/opendiary/internal/envelope"
)

// Registry creates and looks up accounts. It is the only component that sees
// password hashes.
type Registry struct {
	accounts AccountRepository
	hasher   PasswordHasher
	settings settings
}

// NewRegistry creates a Registry.
func NewRegistry(accounts AccountRepository, hasher PasswordHasher, opts ...Option) (*Registry, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	return &Registry{
		accounts: accounts,
		hasher:   hasher,
		settings: applyOptions(opts),
	}, nil
}

// Register creates a new account and returns its identity.
//
// The uniqueness lookup and the insert are separate statements; a concurrent
// registration that slips between them is caught by the store's unique
// constraints and reported the same way as a failed lookup.
func (r *Registry) Register(ctx context.Context, reg Registration) (id uuid.UUID, err error) {
	ctx, span := tracer.Start(ctx, "auth.register",
		trace.WithAttributes(attribute.String("account.username", reg.Username)),
	)
	defer func() { endSpan(span, err) }()

	if err = reg.Validate(); err != nil {
		r.settings.metrics.registration(OutcomeRejected)
		return uuid.Nil, err
	}

	_, lookupErr := r.accounts.FindByUsernameOrEmail(ctx, reg.Username, reg.Email)
	switch {
	case lookupErr == nil:
		r.settings.metrics.registration(OutcomeRejected)
		return uuid.Nil, userExists(reg)
	case !errors.Is(lookupErr, ErrNotFound):
		r.settings.metrics.registration(OutcomeError)
		return uuid.Nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check username/email uniqueness").
			Wrap(lookupErr)
	}

	id, err = r.settings.newID()
	if err != nil {
		r.settings.metrics.registration(OutcomeError)
		return uuid.Nil, oops.In(envelope.DomainUUID).
			Code("AUTH_ID_GENERATE_FAILED").
			With("operation", "generate account id").
			Wrap(err)
	}

	hash, err := r.hasher.Hash(reg.Password)
	if err != nil {
		r.settings.metrics.registration(OutcomeError)
		return uuid.Nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account := &Account{
		ID:           id,
		Username:     reg.Username,
		Name:         reg.Name,
		Surname:      reg.Surname,
		Patronymic:   reg.Patronymic,
		Email:        reg.Email,
		PasswordHash: hash,
		CreatedAt:    r.settings.clock().UTC(),
	}

	if err = r.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			r.settings.metrics.registration(OutcomeRejected)
			return uuid.Nil, userExists(reg)
		}
		r.settings.metrics.registration(OutcomeError)
		return uuid.Nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "persist account").
			With("username", reg.Username).
			Wrap(err)
	}

	r.settings.metrics.registration(OutcomeSuccess)
	r.settings.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", id.String()),
		slog.String("username", reg.Username),
	)
	return id, nil
}

// FindByUsername returns the account with the given username.
func (r *Registry) FindByUsername(ctx context.Context, username string) (*Account, error) {
	if strings.TrimSpace(username) == "" {
		return nil, oops.Code("AUTH_INVALID_PAYLOAD").
			With("field", "username").
			Wrapf(envelope.ErrInvalidPayload, "`username` parameter was empty")
	}

	account, err := r.accounts.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_USER_NOT_FOUND").
			With("username", username).
			Wrapf(envelope.ErrUserDoesNotExist, "user with name `%s` does not exist", username)
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get account by username").
			Wrap(err)
	}
	return account, nil
}

// FindByID returns the account with the given identity.
func (r *Registry) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := r.accounts.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_USER_NOT_FOUND").
			With("account_id", id.String()).
			Wrapf(envelope.ErrUserDoesNotExist, "user with uuid `%s` does not exist", id)
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get account by id").
			Wrap(err)
	}
	return account, nil
}

// verifyPassword checks password against the account's stored hash.
func (r *Registry) verifyPassword(account *Account, password string) (bool, error) {
	ok, err := r.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return false, oops.Code("AUTH_VERIFY_FAILED").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	return ok, nil
}

func userExists(reg Registration) error {
	return oops.Code("AUTH_USER_EXISTS").
		With("username", reg.Username).
		Wrapf(envelope.ErrUserAlreadyExists, "user with provided email/username already exists")
}
