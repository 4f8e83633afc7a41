// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/account"
	"github.com/wardenhq/warden/pkg/errutil"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want account.Role
	}{
		{"USER", account.RoleUser},
		{"backoffice", account.RoleBackoffice},
		{" Backend ", account.RoleBackend},
		{"SUPER", account.RoleSuper},
		{"U", account.RoleUser},
		{"gbo", account.RoleBackoffice},
		{"GA", account.RoleBackend},
		{"SU", account.RoleSuper},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := account.ParseRole(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown role", func(t *testing.T) {
		_, err := account.ParseRole("ADMIN")
		errutil.AssertErrorCode(t, err, account.CodeInvalidRole)
		errutil.AssertErrorContext(t, err, "role", "ADMIN")
	})
}

func TestRole_Rank(t *testing.T) {
	assert.Less(t, account.RoleUser.Rank(), account.RoleBackoffice.Rank())
	assert.Less(t, account.RoleBackoffice.Rank(), account.RoleBackend.Rank())
	assert.Less(t, account.RoleBackend.Rank(), account.RoleSuper.Rank())
	assert.Equal(t, -1, account.Role("ROOT").Rank())
	assert.False(t, account.Role("ROOT").Valid())
	assert.True(t, account.RoleSuper.Valid())
}

func TestRole_LegacyCode(t *testing.T) {
	assert.Equal(t, "U", account.RoleUser.LegacyCode())
	assert.Equal(t, "GBO", account.RoleBackoffice.LegacyCode())
	assert.Equal(t, "GA", account.RoleBackend.LegacyCode())
	assert.Equal(t, "SU", account.RoleSuper.LegacyCode())
	assert.Empty(t, account.Role("ROOT").LegacyCode())
}

func TestParseState(t *testing.T) {
	st, err := account.ParseState("disabled")
	require.NoError(t, err)
	assert.Equal(t, account.StateDisabled, st)

	st, err = account.ParseState("ENABLED")
	require.NoError(t, err)
	assert.Equal(t, account.StateEnabled, st)

	_, err = account.ParseState("PAUSED")
	errutil.AssertErrorCode(t, err, account.CodeInvalidState)
}

func TestParseVisibility(t *testing.T) {
	v, err := account.ParseVisibility("public")
	require.NoError(t, err)
	assert.Equal(t, account.VisibilityPublic, v)

	_, err = account.ParseVisibility("friends")
	errutil.AssertErrorCode(t, err, account.CodeInvalidVisibility)
}
