// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opendiary/opendiary/internal/envelope"
)

// LogoutOutcome reports the validation result a logout ran under and whether
// a session row was removed. Removed is always false unless Result is
// AuthSuccess.
type LogoutOutcome struct {
	Result  AuthResult
	Removed bool
}

// Authority issues, validates, and revokes sessions.
//
// Session state per account moves absent → live on Login, live → absent on
// Logout, and live → expired → absent lazily: Validate deletes an expired
// session the first time it sees it. Nothing is cached; every call reads
// the store.
type Authority struct {
	registry *Registry
	sessions SessionRepository
	settings settings
}

// NewAuthority creates an Authority that checks credentials through registry.
func NewAuthority(registry *Registry, sessions SessionRepository, opts ...Option) (*Authority, error) {
	if registry == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("account registry is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	}
	return &Authority{
		registry: registry,
		sessions: sessions,
		settings: applyOptions(opts),
	}, nil
}

// Login verifies the password of account id and returns its session. An
// outstanding session is returned unchanged; otherwise a new one is issued
// with expiry now + the session lifetime.
func (a *Authority) Login(ctx context.Context, id uuid.UUID, password string) (session *Session, err error) {
	ctx, span := tracer.Start(ctx, "auth.login",
		trace.WithAttributes(attribute.String("account.id", id.String())),
	)
	defer func() { endSpan(span, err) }()

	if password == "" {
		a.settings.metrics.login(OutcomeRejected)
		return nil, emptyPassword()
	}

	account, err := a.registry.FindByID(ctx, id)
	if err != nil {
		a.settings.metrics.login(outcomeFor(err))
		return nil, err
	}

	valid, err := a.registry.verifyPassword(account, password)
	if err != nil {
		a.settings.metrics.login(OutcomeError)
		return nil, err
	}
	if !valid {
		a.settings.metrics.login(OutcomeRejected)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").
			With("account_id", id.String()).
			Wrapf(envelope.ErrAuthenticationFailure, "passwords do not match")
	}

	existing, err := a.sessionFor(ctx, id)
	if err != nil {
		a.settings.metrics.login(OutcomeError)
		return nil, err
	}
	if existing != nil {
		a.settings.metrics.login(OutcomeReused)
		a.settings.logger.DebugContext(ctx, "returning outstanding session",
			slog.String("account_id", id.String()),
			slog.String("token_prefix", existing.TokenPrefix()),
		)
		return existing, nil
	}

	session, err = a.issue(ctx, id)
	if err != nil {
		a.settings.metrics.login(OutcomeError)
		return nil, err
	}
	a.settings.metrics.login(OutcomeSuccess)
	return session, nil
}

// LoginUsername resolves username to an identity and logs it in.
func (a *Authority) LoginUsername(ctx context.Context, username, password string) (*Session, error) {
	if password == "" {
		a.settings.metrics.login(OutcomeRejected)
		return nil, emptyPassword()
	}

	account, err := a.registry.FindByUsername(ctx, username)
	if err != nil {
		a.settings.metrics.login(outcomeFor(err))
		return nil, err
	}
	return a.Login(ctx, account.ID, password)
}

func emptyPassword() error {
	return oops.Code("AUTH_INVALID_PAYLOAD").
		With("field", "password").
		Wrapf(envelope.ErrInvalidPayload, "`password` parameter was empty")
}

// sessionFor returns the account's stored session, or nil if there is none.
func (a *Authority) sessionFor(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := a.sessions.GetByAccount(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get session by account").
			With("account_id", id.String()).
			Wrap(err)
	}
	return session, nil
}

// issue creates and persists a new session for id. If a concurrent login
// stored one first, that session is returned instead.
func (a *Authority) issue(ctx context.Context, id uuid.UUID) (*Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session := &Session{
		Token:     token,
		AccountID: id,
		ExpiresAt: a.settings.clock().UTC().Add(a.settings.lifetime),
	}

	if err := a.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			winner, lookupErr := a.sessionFor(ctx, id)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("account_id", id.String()).
			Wrap(err)
	}

	a.settings.logger.InfoContext(ctx, "session issued",
		slog.String("account_id", id.String()),
		slog.String("token_prefix", session.TokenPrefix()),
		slog.Time("expires_at", session.ExpiresAt),
	)
	return session, nil
}

// Evaluate classifies session at now without touching the store.
func (a *Authority) Evaluate(session *Session, now time.Time) AuthResult {
	if session == nil {
		return AuthInvalidSession
	}
	if session.IsExpiredAt(now) {
		if a.settings.distinctExpiry {
			return AuthSessionExpired
		}
		return AuthInvalidSession
	}
	return AuthSuccess
}

// Validate reports whether token names a live session. An empty or unknown
// token is AuthInvalidSession, never an error. An expired session is deleted
// before Validate returns. Errors are store failures only.
func (a *Authority) Validate(ctx context.Context, token string) (result AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.validate")
	defer func() {
		span.SetAttributes(attribute.String("auth.result", result.String()))
		endSpan(span, err)
	}()

	if token == "" {
		a.settings.metrics.validation(AuthInvalidSession)
		return AuthInvalidSession, nil
	}

	session, err := a.sessions.GetByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		a.settings.metrics.validation(AuthInvalidSession)
		return AuthInvalidSession, nil
	}
	if err != nil {
		return AuthInvalidSession, oops.Code("AUTH_VALIDATE_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}

	now := a.settings.clock()
	result = a.Evaluate(session, now)
	if session.IsExpiredAt(now) {
		if err := a.purge(ctx, session); err != nil {
			return AuthInvalidSession, err
		}
	}

	a.settings.metrics.validation(result)
	return result, nil
}

// purge removes an expired session found during validation.
func (a *Authority) purge(ctx context.Context, session *Session) error {
	if err := a.sessions.Delete(ctx, session.Token); err != nil {
		return oops.Code("AUTH_VALIDATE_FAILED").
			With("operation", "delete expired session").
			With("account_id", session.AccountID.String()).
			Wrap(err)
	}
	a.settings.logger.InfoContext(ctx, "expired session purged",
		slog.String("account_id", session.AccountID.String()),
		slog.String("token_prefix", session.TokenPrefix()),
		slog.Time("expired_at", session.ExpiresAt),
	)
	return nil
}

// Logout validates token and, only if it is live, deletes the session owned
// by owner. A token that belongs to a different account is left in place and
// reported as not removed.
func (a *Authority) Logout(ctx context.Context, token string, owner uuid.UUID) (outcome LogoutOutcome, err error) {
	ctx, span := tracer.Start(ctx, "auth.logout",
		trace.WithAttributes(attribute.String("account.id", owner.String())),
	)
	defer func() { endSpan(span, err) }()

	result, err := a.Validate(ctx, token)
	if err != nil {
		return LogoutOutcome{Result: result}, err
	}
	if result != AuthSuccess {
		return LogoutOutcome{Result: result}, nil
	}

	removed, err := a.sessions.DeleteOwned(ctx, token, owner)
	if err != nil {
		return LogoutOutcome{Result: result}, oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete owned session").
			With("account_id", owner.String()).
			Wrap(err)
	}

	a.settings.metrics.logout(removed)
	if removed {
		a.settings.logger.InfoContext(ctx, "session revoked",
			slog.String("account_id", owner.String()),
			slog.String("token_prefix", tokenPrefix(token)),
		)
	}
	return LogoutOutcome{Result: result, Removed: removed}, nil
}

// PurgeExpired deletes every expired session. It is a maintenance sweep and
// is never called on a request path.
func (a *Authority) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := a.sessions.DeleteExpired(ctx, a.settings.clock())
	if err != nil {
		return 0, oops.Code("AUTH_PURGE_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	a.settings.logger.InfoContext(ctx, "expired sessions purged", slog.Int64("count", n))
	return n, nil
}

// outcomeFor maps a lookup failure to a login outcome label.
func outcomeFor(err error) string {
	if errors.Is(err, envelope.ErrUserDoesNotExist) || errors.Is(err, envelope.ErrInvalidPayload) {
		return OutcomeRejected
	}
	return OutcomeError
}
