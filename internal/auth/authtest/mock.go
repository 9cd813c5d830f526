// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

package authtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/opendiary/opendiary/internal/auth"
)

// MockAccountRepository is a testify mock of auth.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a mock that asserts its expectations when
// the test ends.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create implements auth.AccountRepository.
func (m *MockAccountRepository) Create(ctx context.Context, account *auth.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// GetByID implements auth.AccountRepository.
func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	args := m.Called(ctx, id)
	return account(args, 0), args.Error(1)
}

// GetByUsername implements auth.AccountRepository.
func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	args := m.Called(ctx, username)
	return account(args, 0), args.Error(1)
}

// FindByUsernameOrEmail implements auth.AccountRepository.
func (m *MockAccountRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*auth.Account, error) {
	args := m.Called(ctx, username, email)
	return account(args, 0), args.Error(1)
}

// MockSessionRepository is a testify mock of auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a mock that asserts its expectations when
// the test ends.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create implements auth.SessionRepository.
func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// GetByToken implements auth.SessionRepository.
func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	return session(args, 0), args.Error(1)
}

// GetByAccount implements auth.SessionRepository.
func (m *MockSessionRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) (*auth.Session, error) {
	args := m.Called(ctx, accountID)
	return session(args, 0), args.Error(1)
}

// Delete implements auth.SessionRepository.
func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// DeleteOwned implements auth.SessionRepository.
func (m *MockSessionRepository) DeleteOwned(ctx context.Context, token string, accountID uuid.UUID) (bool, error) {
	args := m.Called(ctx, token, accountID)
	return args.Bool(0), args.Error(1)
}

// DeleteExpired implements auth.SessionRepository.
func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockPasswordHasher is a testify mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock that asserts its expectations when the
// test ends.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash implements auth.PasswordHasher.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// HashWithSalt implements auth.PasswordHasher.
func (m *MockPasswordHasher) HashWithSalt(password string, salt []byte) (string, error) {
	args := m.Called(password, salt)
	return args.String(0), args.Error(1)
}

// Verify implements auth.PasswordHasher.
func (m *MockPasswordHasher) Verify(password, record string) (bool, error) {
	args := m.Called(password, record)
	return args.Bool(0), args.Error(1)
}

func account(args mock.Arguments, i int) *auth.Account {
	if a, ok := args.Get(i).(*auth.Account); ok {
		return a
	}
	return nil
}

func session(args mock.Arguments, i int) *auth.Session {
	if s, ok := args.Get(i).(*auth.Session); ok {
		return s
	}
	return nil
}

// Verify interfaces are satisfied.
var (
	_ auth.AccountRepository = (*MockAccountRepository)(nil)
	_ auth.SessionRepository = (*MockSessionRepository)(nil)
	_ auth.PasswordHasher    = (*MockPasswordHasher)(nil)
)
