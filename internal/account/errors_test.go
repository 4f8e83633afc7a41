// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/wardenhq/warden/internal/account"
	"github.com/wardenhq/warden/internal/store"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want account.Kind
	}{
		{"nil", nil, account.KindInternal},
		{"plain error", errors.New("boom"), account.KindInternal},
		{"uncoded oops", oops.Errorf("boom"), account.KindInternal},
		{"unknown code", oops.Code("STORE_READ_FAILED").Errorf("boom"), account.KindInternal},
		{"validation", oops.Code(account.CodePasswordMismatch).Errorf("x"), account.KindValidation},
		{"authentication", oops.Code(account.CodeBadCredentials).Errorf("x"), account.KindAuthentication},
		{"authorization", oops.Code(account.CodePermissionDenied).Errorf("x"), account.KindAuthorization},
		{"not found", oops.Code(account.CodeNotFound).Errorf("x"), account.KindNotFound},
		{"already exists", oops.Code(account.CodeAlreadyExists).Errorf("x"), account.KindConflict},
		{"store conflict sentinel", store.ErrConflict, account.KindConflict},
		{"wrapped store conflict", oops.Code("STORE_CONFLICT").With("sqlstate", "40001").Wrap(store.ErrConflict), account.KindConflict},
		{"context wrap keeps kind", oops.With("operation", "login").Wrap(oops.Code(account.CodeNotAuthenticated).Errorf("x")), account.KindAuthentication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, account.KindOf(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", account.KindValidation.String())
	assert.Equal(t, "conflict", account.KindConflict.String())
	assert.Equal(t, "internal", account.Kind(99).String())
}
