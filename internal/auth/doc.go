// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

// Package auth provides the credential and session authority for OpenDiary.
//
// # Components
//
//   - PasswordHasher - salted argon2id hashing and verification
//   - Registry - account registration and lookup
//   - Authority - session issue, validation, and revocation
//
// Both services are created with New* constructors that validate their
// dependencies and accept functional options (WithLogger, WithClock, ...).
//
// # Sessions
//
// An account owns at most one session. Login returns the outstanding session
// if there is one. Validate never returns an expired session as valid; it
// deletes the expired row before reporting the result.
//
// # Errors
//
// Domain outcomes wrap the sentinels in package envelope (for example
// envelope.ErrUserDoesNotExist). Store and crypto failures carry the oops
// domain set where they originated. Use envelope.Classify to map any error
// returned here onto the transport taxonomy.
package auth
