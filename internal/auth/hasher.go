// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"

	"github.com/opendiary/opendiary/internal/envelope"
)

// Salt and key sizes for argon2id records.
const (
	argon2SaltLen = 16 // salt length in bytes
	argon2KeyLen  = 32 // output length in bytes
)

// Argon2Params are the argon2id cost parameters used for new hashes.
// Verification always uses the parameters recorded in the hash itself.
type Argon2Params struct {
	Time      uint32 // iterations
	MemoryKiB uint32
	Threads   uint8
}

// DefaultArgon2Params are the OWASP-recommended argon2id parameters.
var DefaultArgon2Params = Argon2Params{
	Time:      1,
	MemoryKiB: 64 * 1024,
	Threads:   4,
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted hash record of the password using a fresh salt.
	Hash(password string) (string, error)

	// HashWithSalt produces the hash record for a caller-supplied salt.
	// It is deterministic for a given password and salt.
	HashWithSalt(password string, salt []byte) (string, error)

	// Verify checks if the password matches the record.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// only when the record cannot be parsed.
	Verify(password, record string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates an Argon2idHasher with DefaultArgon2Params.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with custom cost
// parameters. Zero fields fall back to the defaults.
func NewArgon2idHasherWithParams(p Argon2Params) *Argon2idHasher {
	if p.Time == 0 {
		p.Time = DefaultArgon2Params.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultArgon2Params.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2Params.Threads
	}
	return &Argon2idHasher{params: p}
}

// Hash produces an argon2id hash of the password with a random salt.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.In(envelope.DomainCrypto).Code("AUTH_SALT_FAILED").Wrap(err)
	}
	return h.HashWithSalt(password, salt)
}

// HashWithSalt produces an argon2id hash of the password for the given salt.
func (h *Argon2idHasher) HashWithSalt(password string, salt []byte) (string, error) {
	if len(salt) == 0 {
		return "", oops.In(envelope.DomainCrypto).Code("AUTH_SALT_EMPTY").Errorf("salt cannot be empty")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the password matches the record.
func (h *Argon2idHasher) Verify(password, record string) (bool, error) {
	parts := strings.Split(record, "$")
	if len(parts) != 6 {
		return false, invalidHash().Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, invalidHash().Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, invalidHash().Wrap(err)
	}
	if version != argon2.Version {
		return false, invalidHash().Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, invalidHash().Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, invalidHash().Wrap(err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, invalidHash().Wrap(err)
	}

	if time == 0 {
		return false, invalidHash().Errorf("iteration count cannot be zero")
	}

	if threads == 0 || threads > 255 {
		return false, invalidHash().Errorf("threads value %d out of range", threads)
	}

	keyLen := len(expected)
	if keyLen == 0 || keyLen > 1<<10 {
		return false, invalidHash().Errorf("invalid hash key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func invalidHash() oops.OopsErrorBuilder {
	return oops.In(envelope.DomainCrypto).Code("AUTH_INVALID_HASH")
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
