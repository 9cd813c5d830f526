// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package auth

import "errors"

// Repository sentinels. Implementations wrap these so services can tell a
// missing row or a uniqueness conflict apart from a store failure.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when an insert violates a uniqueness constraint.
	ErrAlreadyExists = errors.New("already exists")
)
