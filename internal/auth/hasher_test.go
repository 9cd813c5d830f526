// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/envelope"
	"github.com/opendiary/opendiary/pkg/errutil"
)

// cheapHasher keeps tests fast; verification reads parameters from the record.
func cheapHasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, MemoryKiB: 8 * 1024, Threads: 1})
}

func TestHashPassword(t *testing.T) {
	hasher := cheapHasher()

	t.Run("produces PHC record", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("default parameters are recorded", func(t *testing.T) {
		hash, err := auth.NewArgon2idHasher().HashWithSalt("pw", []byte("0123456789abcdef"))
		require.NoError(t, err)
		assert.Contains(t, hash, "$m=65536,t=1,p=4$")
	})
}

func TestHashWithSalt(t *testing.T) {
	hasher := cheapHasher()
	salt := []byte("fixed-salt-value")

	t.Run("deterministic for a given salt", func(t *testing.T) {
		hash1, err := hasher.HashWithSalt("pw1", salt)
		require.NoError(t, err)
		hash2, err := hasher.HashWithSalt("pw1", salt)
		require.NoError(t, err)
		assert.Equal(t, hash1, hash2)
	})

	t.Run("different salts produce different hashes", func(t *testing.T) {
		hash1, err := hasher.HashWithSalt("pw1", salt)
		require.NoError(t, err)
		hash2, err := hasher.HashWithSalt("pw1", []byte("another-salt-val"))
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty salt", func(t *testing.T) {
		_, err := hasher.HashWithSalt("pw1", nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_SALT_EMPTY")
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := cheapHasher()

	t.Run("round trips for many passwords and salts", func(t *testing.T) {
		passwords := []string{"", "pw1", "correct horse battery staple", "пароль", strings.Repeat("x", 200)}
		salts := [][]byte{[]byte("a"), []byte("0123456789abcdef"), []byte(strings.Repeat("s", 64))}
		for _, pw := range passwords {
			for _, salt := range salts {
				hash, err := hasher.HashWithSalt(pw, salt)
				require.NoError(t, err)
				ok, err := hasher.Verify(pw, hash)
				require.NoError(t, err)
				assert.True(t, ok, "password %q salt %q", pw, salt)
			}
		}
	})

	t.Run("incorrect password fails without error", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("verifies with parameters from the record", func(t *testing.T) {
		hash, err := hasher.Hash("pw1")
		require.NoError(t, err)

		ok, err := auth.NewArgon2idHasher().Verify("pw1", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestVerifyPassword_MalformedRecord(t *testing.T) {
	hasher := cheapHasher()

	tests := []struct {
		name     string
		record   string
		contains string
	}{
		{name: "not a PHC string", record: "not-a-valid-hash", contains: "invalid hash format"},
		{name: "wrong algorithm", record: "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", contains: "unsupported hash algorithm"},
		{name: "bad version field", record: "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "unsupported version", record: "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA", contains: "unsupported argon2 version"},
		{name: "bad parameters", record: "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{name: "bad salt encoding", record: "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA"},
		{name: "bad digest encoding", record: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!"},
		{name: "zero iterations", record: "$argon2id$v=19$m=65536,t=0,p=4$c2FsdA$aGFzaA", contains: "iteration count"},
		{name: "threads overflow", record: "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA", contains: "threads value"},
		{name: "empty digest", record: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$", contains: "key length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("password", tt.record)
			require.Error(t, err)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
			errutil.AssertErrorDomain(t, err, envelope.DomainCrypto)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
			assert.Equal(t, envelope.InternalCrypto, envelope.Classify(err).Internal)
		})
	}
}
