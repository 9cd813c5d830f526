// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

// Package authtest provides in-memory repositories and testify mocks for
// exercising the auth services without a database.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opendiary/opendiary/internal/auth"
)

// MemoryAccounts is an AccountRepository backed by a map. Username and email
// uniqueness are enforced the same way the store's constraints do.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]auth.Account
}

// NewMemoryAccounts creates an empty MemoryAccounts.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[uuid.UUID]auth.Account)}
}

// Create implements auth.AccountRepository.
func (m *MemoryAccounts) Create(_ context.Context, account *auth.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; ok {
		return auth.ErrAlreadyExists
	}
	for _, a := range m.accounts {
		if a.Username == account.Username || a.Email == account.Email {
			return auth.ErrAlreadyExists
		}
	}
	m.accounts[account.ID] = *account
	return nil
}

// GetByID implements auth.AccountRepository.
func (m *MemoryAccounts) GetByID(_ context.Context, id uuid.UUID) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &a, nil
}

// GetByUsername implements auth.AccountRepository.
func (m *MemoryAccounts) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, auth.ErrNotFound
}

// FindByUsernameOrEmail implements auth.AccountRepository.
func (m *MemoryAccounts) FindByUsernameOrEmail(_ context.Context, username, email string) (*auth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Username == username || a.Email == email {
			return &a, nil
		}
	}
	return nil, auth.ErrNotFound
}

// Len returns the number of stored accounts.
func (m *MemoryAccounts) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

// MemorySessions is a SessionRepository backed by a map keyed by token.
// It enforces one session per account.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session
}

// NewMemorySessions creates an empty MemorySessions.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]auth.Session)}
}

// Create implements auth.SessionRepository.
func (m *MemorySessions) Create(_ context.Context, session *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.Token]; ok {
		return auth.ErrAlreadyExists
	}
	for _, s := range m.sessions {
		if s.AccountID == session.AccountID {
			return auth.ErrAlreadyExists
		}
	}
	m.sessions[session.Token] = *session
	return nil
}

// GetByToken implements auth.SessionRepository.
func (m *MemorySessions) GetByToken(_ context.Context, token string) (*auth.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &s, nil
}

// GetByAccount implements auth.SessionRepository.
func (m *MemorySessions) GetByAccount(_ context.Context, accountID uuid.UUID) (*auth.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sessions {
		if s.AccountID == accountID {
			return &s, nil
		}
	}
	return nil, auth.ErrNotFound
}

// Delete implements auth.SessionRepository.
func (m *MemorySessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

// DeleteOwned implements auth.SessionRepository.
func (m *MemorySessions) DeleteOwned(_ context.Context, token string, accountID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok || s.AccountID != accountID {
		return false, nil
	}
	delete(m.sessions, token)
	return true, nil
}

// DeleteExpired implements auth.SessionRepository.
func (m *MemorySessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for token, s := range m.sessions {
		if s.IsExpiredAt(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// Put stores session directly, bypassing the one-per-account check. Tests
// use it to seed expired rows.
func (m *MemorySessions) Put(session auth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Token] = session
}

// Has reports whether token is stored.
func (m *MemorySessions) Has(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[token]
	return ok
}

// Len returns the number of stored sessions.
func (m *MemorySessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Verify interfaces are satisfied.
var (
	_ auth.AccountRepository = (*MemoryAccounts)(nil)
	_ auth.SessionRepository = (*MemorySessions)(nil)
)
