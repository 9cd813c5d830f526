// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/opendiary/opendiary/internal/envelope"
	"github.com/opendiary/opendiary/pkg/errutil"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(e *envelope.Error) int {
	switch e.Kind {
	case envelope.KindNotFound, envelope.KindUserDoesNotExist:
		return http.StatusNotFound
	case envelope.KindInvalidPayload, envelope.KindMissingCredentials:
		return http.StatusBadRequest
	case envelope.KindUserAlreadyExists:
		return http.StatusConflict
	case envelope.KindAuthenticationFailure:
		return http.StatusUnauthorized
	case envelope.KindInternalError, envelope.KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// reply logs a failure, if any, and writes the envelope for (value, err).
func reply[T any](s *Server, w http.ResponseWriter, r *http.Request, value T, err error) {
	if err != nil {
		s.logFailure(r, err)
	}
	write(w, envelope.From(value, err))
}

func (s *Server) logFailure(r *http.Request, err error) {
	ctx := r.Context()
	logger := s.logger.With(slog.String("request_id", RequestIDFromContext(ctx)))

	e := envelope.Classify(err)
	switch e.Kind {
	case envelope.KindInternalError, envelope.KindUnknown:
		errutil.LogErrorContext(ctx, logger, "request failed", err)
	default:
		logger.DebugContext(ctx, "request rejected",
			slog.String("kind", string(e.Kind)),
			slog.String("message", e.Message),
		)
	}
}

// write encodes env and sends it with the status its kind implies.
func write[T any](w http.ResponseWriter, env envelope.Envelope[T]) {
	status := envelope.Match(env, func(T) int { return http.StatusOK }, StatusFor)

	body, err := json.Marshal(env)
	if err != nil {
		failure := envelope.Classify(err)
		status = StatusFor(failure)
		body, _ = json.Marshal(failure)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decode reads the body, validates it against the named request schema, and
// unmarshals it into T. Client mistakes are reported as invalid payloads.
func decode[T any](s *Server, w http.ResponseWriter, r *http.Request, schema string) (T, error) {
	var req T

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, oops.Code("HTTP_BODY_TOO_LARGE").
				With("limit", tooLarge.Limit).
				Wrapf(envelope.ErrInvalidPayload, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return req, oops.In(envelope.DomainIO).Code("HTTP_BODY_READ_FAILED").Wrap(err)
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return req, oops.Code("HTTP_BODY_MALFORMED").
			Wrapf(envelope.ErrInvalidPayload, "request body is not valid JSON: %v", err)
	}

	if err := s.schemas[schema].Validate(doc); err != nil {
		return req, oops.Code("HTTP_BODY_INVALID").
			With("schema", schema).
			Wrapf(envelope.ErrInvalidPayload, "%s", flattenValidation(err))
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, oops.Code("HTTP_BODY_INVALID").
			With("schema", schema).
			Wrapf(envelope.ErrInvalidPayload, "%v", err)
	}
	return req, nil
}

// flattenValidation renders a multi-line schema error on one line.
func flattenValidation(err error) string {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "- "))
	}
	return strings.Join(lines, "; ")
}
