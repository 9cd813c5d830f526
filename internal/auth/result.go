// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"github.com/samber/oops"

	"github.com/opendiary/opendiary/internal/envelope"
)

// AuthResult is the outcome of validating a session token. It is a value, not
// an error: callers branch on it to decide whether to proceed.
type AuthResult int

// Validation outcomes.
const (
	AuthSuccess AuthResult = iota
	AuthSessionExpired
	AuthInvalidSession
)

// String returns the wire name of the result.
func (r AuthResult) String() string {
	switch r {
	case AuthSuccess:
		return "Success"
	case AuthSessionExpired:
		return "SessionExpired"
	case AuthInvalidSession:
		return "InvalidSession"
	default:
		return "AuthResult(?)"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r AuthResult) MarshalText() ([]byte, error) {
	switch r {
	case AuthSuccess, AuthSessionExpired, AuthInvalidSession:
		return []byte(r.String()), nil
	default:
		return nil, oops.In(envelope.DomainSerialization).Code("AUTH_RESULT_INVALID").With("value", int(r)).Errorf("unknown auth result")
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *AuthResult) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Success":
		*r = AuthSuccess
	case "SessionExpired":
		*r = AuthSessionExpired
	case "InvalidSession":
		*r = AuthInvalidSession
	default:
		return oops.In(envelope.DomainSerialization).Code("AUTH_RESULT_INVALID").With("value", string(text)).Errorf("unknown auth result")
	}
	return nil
}
