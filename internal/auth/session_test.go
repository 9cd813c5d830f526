// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendiary/opendiary/internal/auth"
)

func TestGenerateSessionToken(t *testing.T) {
	t.Run("generates hex-encoded sha256", func(t *testing.T) {
		token, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, auth.SessionTokenLength)

		raw, err := hex.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 100 {
			token, err := auth.GenerateSessionToken()
			require.NoError(t, err)
			_, dup := seen[token]
			require.False(t, dup)
			seen[token] = struct{}{}
		}
	})
}

func TestSession_IsExpiredAt(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := &auth.Session{Token: "tok", AccountID: uuid.New(), ExpiresAt: expiry}

	tests := []struct {
		name    string
		at      time.Time
		expired bool
	}{
		{name: "before expiry", at: expiry.Add(-time.Second), expired: false},
		{name: "exactly at expiry", at: expiry, expired: false},
		{name: "after expiry", at: expiry.Add(time.Nanosecond), expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, session.IsExpiredAt(tt.at))
		})
	}
}

func TestSession_TokenPrefix(t *testing.T) {
	s := &auth.Session{Token: "0123456789abcdef"}
	assert.Equal(t, "01234567", s.TokenPrefix())

	short := &auth.Session{Token: "abc"}
	assert.Equal(t, "abc", short.TokenPrefix())
}
