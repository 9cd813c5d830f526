// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

// Package envelope implements the uniform success/error wrapper returned by
// every public operation.
//
// An Envelope holds exactly one of a payload or an *Error. Its JSON form always
// carries the "success" discriminant; a failure never carries a payload:
//
//	{"success":true,"student_id":"…"}
//	{"success":false,"error":"InternalError","kind":"DatabaseError","message":"…"}
//
// Callers branch with Match rather than inspecting fields.
package envelope

import (
	"bytes"
	"encoding/json"

	"github.com/samber/oops"
)

// Envelope is a tagged union of a payload of type T and an *Error.
type Envelope[T any] struct {
	value T
	err   *Error
}

// Fine wraps a successful payload.
func Fine[T any](value T) Envelope[T] {
	return Envelope[T]{value: value}
}

// Fail wraps a failure. A nil e is treated as an Unknown error so that an
// Envelope built by Fail is never a success.
func Fail[T any](e *Error) Envelope[T] {
	if e == nil {
		e = NewError(KindUnknown, "unspecified failure")
	}
	return Envelope[T]{err: e}
}

// FromError classifies err and wraps it. err must be non-nil.
func FromError[T any](err error) Envelope[T] {
	return Fail[T](Classify(err))
}

// From returns Fine(value) when err is nil and FromError(err) otherwise.
func From[T any](value T, err error) Envelope[T] {
	if err != nil {
		return FromError[T](err)
	}
	return Fine(value)
}

// OK reports whether the envelope carries a payload.
func (e Envelope[T]) OK() bool { return e.err == nil }

// Value returns the payload and true, or the zero value and false.
func (e Envelope[T]) Value() (T, bool) {
	if e.err != nil {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Err returns the failure, or nil on success.
func (e Envelope[T]) Err() *Error { return e.err }

// Match calls exactly one of onFine or onFail.
func Match[T, R any](e Envelope[T], onFine func(T) R, onFail func(*Error) R) R {
	if e.err != nil {
		return onFail(e.err)
	}
	return onFine(e.value)
}

type errorWire struct {
	Success bool         `json:"success"`
	Error   ErrorKind    `json:"error"`
	Kind    InternalKind `json:"kind,omitempty"`
	Message string       `json:"message"`
}

// MarshalJSON renders the error arm with its discriminant.
func (e *Error) MarshalJSON() ([]byte, error) {
	w := errorWire{Error: e.Kind, Message: e.Message}
	if e.Kind == KindInternalError {
		w.Kind = e.Internal
	}
	return json.Marshal(w)
}

// MarshalJSON flattens the payload's fields next to "success":true. Payloads
// must encode as JSON objects; a payload that does not is a serialization error.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	if e.err != nil {
		return e.err.MarshalJSON()
	}

	body, err := json.Marshal(e.value)
	if err != nil {
		return nil, oops.In(DomainSerialization).Code("ENVELOPE_ENCODE_FAILED").Wrap(err)
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, oops.In(DomainSerialization).Code("ENVELOPE_NOT_OBJECT").
			Errorf("envelope payload must encode as a JSON object")
	}

	var buf bytes.Buffer
	buf.WriteString(`{"success":true`)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
