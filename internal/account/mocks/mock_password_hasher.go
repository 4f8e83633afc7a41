// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package mocks holds testify mocks for account interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockPasswordHasher is a mock of account.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// MockPasswordHasher_Expecter offers typed expectation helpers.
type MockPasswordHasher_Expecter struct { //nolint:revive // mockery naming
	mock *mock.Mock
}

// EXPECT returns the typed expecter.
func (m *MockPasswordHasher) EXPECT() *MockPasswordHasher_Expecter {
	return &MockPasswordHasher_Expecter{mock: &m.Mock}
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Hash registers an expectation for Hash.
func (e *MockPasswordHasher_Expecter) Hash(password any) *mock.Call {
	return e.mock.On("Hash", password)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, digest string) (bool, error) {
	ret := m.Called(password, digest)
	return ret.Bool(0), ret.Error(1)
}

// Verify registers an expectation for Verify.
func (e *MockPasswordHasher_Expecter) Verify(password, digest any) *mock.Call {
	return e.mock.On("Verify", password, digest)
}

// NeedsUpgrade provides a mock function.
func (m *MockPasswordHasher) NeedsUpgrade(digest string) bool {
	ret := m.Called(digest)
	return ret.Bool(0)
}

// NeedsUpgrade registers an expectation for NeedsUpgrade.
func (e *MockPasswordHasher_Expecter) NeedsUpgrade(digest any) *mock.Call {
	return e.mock.On("NeedsUpgrade", digest)
}

// NewMockPasswordHasher creates a mock that asserts its expectations when t
// finishes.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
