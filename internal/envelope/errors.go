// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package envelope

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrorKind names a top-level failure in the closed error taxonomy.
type ErrorKind string

// Error kinds reported to transport callers.
const (
	KindNotFound              ErrorKind = "NotFound"
	KindInvalidPayload        ErrorKind = "InvalidPayload"
	KindMissingCredentials    ErrorKind = "MissingCredentials"
	KindUserAlreadyExists     ErrorKind = "UserAlreadyExists"
	KindUserDoesNotExist      ErrorKind = "UserDoesNotExist"
	KindAuthenticationFailure ErrorKind = "AuthenticationFailure"
	KindInternalError         ErrorKind = "InternalError"
	KindUnknown               ErrorKind = "Unknown"
)

// InternalKind refines KindInternalError.
type InternalKind string

// Internal error sub-kinds.
const (
	InternalDatabase      InternalKind = "DatabaseError"
	InternalCrypto        InternalKind = "CryptoError"
	InternalIO            InternalKind = "IOError"
	InternalSerialization InternalKind = "SerializationError"
	InternalUUID          InternalKind = "UUIDError"
	InternalUnknownBoxed  InternalKind = "UnknownBoxed"
)

// oops domains set at the origin of an infrastructure failure. Classify maps
// each one onto its InternalKind.
const (
	DomainDatabase      = "database"
	DomainCrypto        = "crypto"
	DomainIO            = "io"
	DomainSerialization = "serialization"
	DomainUUID          = "uuid"
)

// kindError is a sentinel that carries its taxonomy kind.
type kindError struct {
	kind ErrorKind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

// Sentinels for domain outcomes. Wrap them with oops at the point of
// detection; Classify finds them with errors.As.
var (
	ErrNotFound              error = &kindError{KindNotFound, "not found"}
	ErrInvalidPayload        error = &kindError{KindInvalidPayload, "invalid payload"}
	ErrMissingCredentials    error = &kindError{KindMissingCredentials, "missing credentials"}
	ErrUserAlreadyExists     error = &kindError{KindUserAlreadyExists, "user already exists"}
	ErrUserDoesNotExist      error = &kindError{KindUserDoesNotExist, "user does not exist"}
	ErrAuthenticationFailure error = &kindError{KindAuthenticationFailure, "authentication failure"}
)

// Error is the failure arm of an Envelope.
type Error struct {
	Kind     ErrorKind
	Internal InternalKind // set only when Kind is KindInternalError
	Message  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindInternalError {
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Internal, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a non-internal Error. Use Internal for KindInternalError.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Internal builds an InternalError with the given sub-kind.
func Internal(sub InternalKind, message string) *Error {
	return &Error{Kind: KindInternalError, Internal: sub, Message: message}
}

// Boxed wraps a value recovered from a panic.
func Boxed(v any) *Error {
	return Internal(InternalUnknownBoxed, fmt.Sprintf("%v", v))
}

// Classify converts err into its taxonomy entry. Sentinel outcomes win over
// infrastructure domains; anything unrecognised becomes KindUnknown.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var envErr *Error
	if errors.As(err, &envErr) {
		return envErr
	}

	var ke *kindError
	if errors.As(err, &ke) {
		return NewError(ke.kind, err.Error())
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Domain() {
		case DomainDatabase:
			return Internal(InternalDatabase, err.Error())
		case DomainCrypto:
			return Internal(InternalCrypto, err.Error())
		case DomainIO:
			return Internal(InternalIO, err.Error())
		case DomainSerialization:
			return Internal(InternalSerialization, err.Error())
		case DomainUUID:
			return Internal(InternalUUID, err.Error())
		}
	}

	return NewError(KindUnknown, err.Error())
}
