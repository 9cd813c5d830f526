// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package envelope_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendiary/opendiary/internal/envelope"
)

type created struct {
	StudentID string `json:"student_id"`
}

func decode(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestEnvelope_Fine(t *testing.T) {
	env := envelope.Fine(created{StudentID: "abc"})

	assert.True(t, env.OK())
	assert.Nil(t, env.Err())
	v, ok := env.Value()
	require.True(t, ok)
	assert.Equal(t, "abc", v.StudentID)

	out := decode(t, env)
	assert.Equal(t, map[string]any{"success": true, "student_id": "abc"}, out)
}

func TestEnvelope_FineEmptyPayload(t *testing.T) {
	out := decode(t, envelope.Fine(struct{}{}))
	assert.Equal(t, map[string]any{"success": true}, out)
}

func TestEnvelope_FineNonObjectPayload(t *testing.T) {
	_, err := json.Marshal(envelope.Fine(42))
	require.Error(t, err)
}

func TestEnvelope_Fail(t *testing.T) {
	env := envelope.Fail[created](envelope.NewError(envelope.KindUserAlreadyExists, "taken"))

	assert.False(t, env.OK())
	_, ok := env.Value()
	assert.False(t, ok)

	out := decode(t, env)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "UserAlreadyExists", out["error"])
	assert.Equal(t, "taken", out["message"])
	assert.NotContains(t, out, "kind")
	assert.NotContains(t, out, "student_id")
}

func TestEnvelope_FailNilIsNeverSuccess(t *testing.T) {
	env := envelope.Fail[created](nil)
	assert.False(t, env.OK())
	assert.Equal(t, envelope.KindUnknown, env.Err().Kind)
}

func TestEnvelope_InternalCarriesSubKind(t *testing.T) {
	env := envelope.Fail[created](envelope.Internal(envelope.InternalDatabase, "insert failed"))
	out := decode(t, env)
	assert.Equal(t, "InternalError", out["error"])
	assert.Equal(t, "DatabaseError", out["kind"])
}

func TestEnvelope_From(t *testing.T) {
	ok := envelope.From(created{StudentID: "x"}, nil)
	assert.True(t, ok.OK())

	bad := envelope.From(created{StudentID: "x"}, oops.Wrap(envelope.ErrUserDoesNotExist))
	assert.False(t, bad.OK())
	assert.Equal(t, envelope.KindUserDoesNotExist, bad.Err().Kind)
	_, has := bad.Value()
	assert.False(t, has)
}

func TestMatch(t *testing.T) {
	fine := envelope.Match(envelope.Fine(created{StudentID: "a"}),
		func(c created) string { return "fine:" + c.StudentID },
		func(e *envelope.Error) string { return "fail:" + string(e.Kind) })
	assert.Equal(t, "fine:a", fine)

	fail := envelope.Match(envelope.FromError[created](envelope.ErrMissingCredentials),
		func(c created) string { return "fine:" + c.StudentID },
		func(e *envelope.Error) string { return "fail:" + string(e.Kind) })
	assert.Equal(t, "fail:MissingCredentials", fail)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     envelope.ErrorKind
		internal envelope.InternalKind
	}{
		{"invalid payload", oops.Code("X").Wrap(envelope.ErrInvalidPayload), envelope.KindInvalidPayload, ""},
		{"missing credentials", envelope.ErrMissingCredentials, envelope.KindMissingCredentials, ""},
		{"user exists", fmt.Errorf("ctx: %w", envelope.ErrUserAlreadyExists), envelope.KindUserAlreadyExists, ""},
		{"user missing", oops.Wrap(envelope.ErrUserDoesNotExist), envelope.KindUserDoesNotExist, ""},
		{"auth failure", oops.Wrap(envelope.ErrAuthenticationFailure), envelope.KindAuthenticationFailure, ""},
		{"route not found", envelope.ErrNotFound, envelope.KindNotFound, ""},
		{"database", oops.In(envelope.DomainDatabase).Errorf("conn reset"), envelope.KindInternalError, envelope.InternalDatabase},
		{"database wrapped by caller", oops.Code("AUTH_LOGIN_FAILED").Wrap(oops.In(envelope.DomainDatabase).Errorf("boom")), envelope.KindInternalError, envelope.InternalDatabase},
		{"crypto", oops.In(envelope.DomainCrypto).Errorf("bad hash"), envelope.KindInternalError, envelope.InternalCrypto},
		{"io", oops.In(envelope.DomainIO).Errorf("eof"), envelope.KindInternalError, envelope.InternalIO},
		{"serialization", oops.In(envelope.DomainSerialization).Errorf("enc"), envelope.KindInternalError, envelope.InternalSerialization},
		{"uuid", oops.In(envelope.DomainUUID).Errorf("rand"), envelope.KindInternalError, envelope.InternalUUID},
		{"plain error", errors.New("mystery"), envelope.KindUnknown, ""},
		{"oops without domain", oops.Errorf("mystery"), envelope.KindUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := envelope.Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.internal, got.Internal)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, envelope.Classify(nil))
}

func TestClassify_PassesThroughEnvelopeError(t *testing.T) {
	e := envelope.Internal(envelope.InternalIO, "read body")
	assert.Same(t, e, envelope.Classify(oops.Wrap(e)))
}

func TestBoxed(t *testing.T) {
	e := envelope.Boxed("kaboom")
	assert.Equal(t, envelope.KindInternalError, e.Kind)
	assert.Equal(t, envelope.InternalUnknownBoxed, e.Internal)
	assert.Equal(t, "kaboom", e.Message)
}
