// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/account"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/pkg/errutil"
)

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and default profile", func(t *testing.T) {
		h := newHarness(t)
		acct, err := h.svc.Register(ctx, account.RegisterRequest{
			Username:     "alice",
			Password:     "abcdef",
			Confirmation: "abcdef",
			Email:        "alice@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", acct.Username)
		assert.Equal(t, sha512Hex("abcdef"), acct.PasswordDigest)
		assert.Equal(t, epoch, acct.CreatedAt)

		stored, found := h.account("alice")
		require.True(t, found)
		assert.Equal(t, "alice@example.com", stored.Email)
		assert.NotEqual(t, "abcdef", stored.PasswordDigest)
		assert.Equal(t, account.DefaultProfile("alice"), h.profile("alice"))
	})

	valid := account.RegisterRequest{
		Username:     "alice",
		Password:     testPassword,
		Confirmation: testPassword,
		Email:        "alice@example.com",
	}
	tests := []struct {
		name   string
		mutate func(*account.RegisterRequest)
		code   string
	}{
		{"missing username", func(r *account.RegisterRequest) { r.Username = "" }, account.CodeInvalidRequest},
		{"missing password", func(r *account.RegisterRequest) { r.Password = "" }, account.CodeInvalidRequest},
		{"missing confirmation", func(r *account.RegisterRequest) { r.Confirmation = "" }, account.CodeInvalidRequest},
		{"missing email", func(r *account.RegisterRequest) { r.Email = "" }, account.CodeInvalidRequest},
		{"username not UTF-8", func(r *account.RegisterRequest) { r.Username = "al\xffice" }, account.CodeInvalidRequest},
		{"mismatch", func(r *account.RegisterRequest) { r.Confirmation = "other-secret" }, account.CodePasswordMismatch},
		{"too short", func(r *account.RegisterRequest) { r.Password, r.Confirmation = "abcde", "abcde" }, account.CodePasswordTooShort},
		{"short mismatch reports mismatch first", func(r *account.RegisterRequest) { r.Password, r.Confirmation = "abc", "abd" }, account.CodePasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := valid
			tt.mutate(&req)
			_, err := h.svc.Register(ctx, req)
			errutil.AssertErrorCode(t, err, tt.code)
			assert.Equal(t, account.KindValidation, account.KindOf(err))
			_, found := h.account("alice")
			assert.False(t, found)
		})
	}

	t.Run("length counts characters not bytes", func(t *testing.T) {
		h := newHarness(t)
		req := valid
		req.Password, req.Confirmation = "äöüßéè", "äöüßéè"
		_, err := h.svc.Register(ctx, req)
		require.NoError(t, err)
	})

	t.Run("duplicate username", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		_, err := h.svc.Register(ctx, valid)
		errutil.AssertErrorCode(t, err, account.CodeAlreadyExists)
		assert.Equal(t, account.KindConflict, account.KindOf(err))
		assert.Contains(t, err.Error(), "Username alice already exists.")
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("user deletes itself", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		tok := h.login("alice")

		require.NoError(t, h.svc.Delete(ctx, tok, "alice"))
		_, found := h.account("alice")
		assert.False(t, found)
		_, found = h.token("alice")
		assert.False(t, found)
		_, found = readRecord[account.Profile](h, store.ProfileKey("alice"))
		assert.False(t, found)
	})

	t.Run("user cannot delete others", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		h.register("bob")
		tok := h.login("alice")

		err := h.svc.Delete(ctx, tok, "bob")
		errutil.AssertErrorCode(t, err, account.CodePermissionDenied)
		_, found := h.account("bob")
		assert.True(t, found)
	})

	t.Run("backoffice deletes a logged in user and its token", func(t *testing.T) {
		h := newHarness(t)
		h.register("bob")
		h.login("bob")
		admin := h.seedLoggedIn("office", account.RoleBackoffice)

		require.NoError(t, h.svc.Delete(ctx, admin, "bob"))
		_, found := h.token("bob")
		assert.False(t, found)
	})

	t.Run("privileged roles cannot delete themselves", func(t *testing.T) {
		h := newHarness(t)
		admin := h.seedLoggedIn("office", account.RoleBackoffice)
		errutil.AssertErrorCode(t, h.svc.Delete(ctx, admin, "office"), account.CodePermissionDenied)
	})

	t.Run("precondition order", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		tok := h.login("alice")

		errutil.AssertErrorCode(t, h.svc.Delete(ctx, nil, ""), account.CodeInvalidRequest)
		errutil.AssertErrorCode(t, h.svc.Delete(ctx, nil, "ghost"), account.CodeNotAuthenticated)
		errutil.AssertErrorCode(t, h.svc.Delete(ctx, tok, "ghost"), account.CodeNotFound)
	})

	t.Run("replayed delete fails with the same class", func(t *testing.T) {
		h := newHarness(t)
		h.register("bob")
		admin := h.seedLoggedIn("office", account.RoleBackoffice)

		require.NoError(t, h.svc.Delete(ctx, admin, "bob"))
		err := h.svc.Delete(ctx, admin, "bob")
		errutil.AssertErrorCode(t, err, account.CodeNotFound)
		err = h.svc.Delete(ctx, admin, "bob")
		errutil.AssertErrorCode(t, err, account.CodeNotFound)
	})
}

func TestService_ModifyProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		tok := h.login("alice")

		_, err := h.svc.ModifyProfile(ctx, tok, account.ProfileUpdate{
			Landline: ptr("0101"),
			Locality: ptr("Lisbon"),
		})
		require.NoError(t, err)

		got, err := h.svc.ModifyProfile(ctx, tok, account.ProfileUpdate{
			Visibility:  ptr("public"),
			MobilePhone: ptr("555"),
		})
		require.NoError(t, err)
		assert.Equal(t, account.Profile{
			Username:    "alice",
			Visibility:  account.VisibilityPublic,
			Role:        account.RoleUser,
			State:       account.StateEnabled,
			Landline:    "0101",
			MobilePhone: "555",
			Locality:    "Lisbon",
		}, got)
		assert.Equal(t, got, h.profile("alice"))
	})

	t.Run("never alters role or state", func(t *testing.T) {
		h := newHarness(t)
		tok := h.seedLoggedIn("office", account.RoleBackoffice)
		got, err := h.svc.ModifyProfile(ctx, tok, account.ProfileUpdate{Address: ptr("Main St 1")})
		require.NoError(t, err)
		assert.Equal(t, account.RoleBackoffice, got.Role)
		assert.Equal(t, account.StateEnabled, got.State)
	})

	t.Run("invalid visibility writes nothing", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		tok := h.login("alice")

		_, err := h.svc.ModifyProfile(ctx, tok, account.ProfileUpdate{
			Visibility: ptr("friends"),
			Landline:   ptr("0101"),
		})
		errutil.AssertErrorCode(t, err, account.CodeInvalidVisibility)
		assert.Equal(t, account.DefaultProfile("alice"), h.profile("alice"))
	})

	t.Run("requires authentication", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.ModifyProfile(ctx, &account.Token{Username: "alice", ID: "x"}, account.ProfileUpdate{})
		errutil.AssertErrorCode(t, err, account.CodeNotAuthenticated)
	})
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces digest and keeps email and creation time", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		before, _ := h.account("alice")
		tok := h.login("alice")
		h.advance(time.Minute)

		require.NoError(t, h.svc.ChangePassword(ctx, tok, account.ChangePasswordRequest{
			OldPassword:  testPassword,
			NewPassword:  "brand-new",
			Confirmation: "brand-new",
		}))

		after, _ := h.account("alice")
		assert.Equal(t, sha512Hex("brand-new"), after.PasswordDigest)
		assert.Equal(t, before.Email, after.Email)
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

		require.NoError(t, h.svc.Logout(ctx, tok))
		_, err := h.svc.Login(ctx, "alice", testPassword)
		errutil.AssertErrorCode(t, err, account.CodeBadCredentials)
		_, err = h.svc.Login(ctx, "alice", "brand-new")
		require.NoError(t, err)
	})

	tests := []struct {
		name string
		req  account.ChangePasswordRequest
		code string
		msg  string
	}{
		{"missing old", account.ChangePasswordRequest{NewPassword: "abcdefg", Confirmation: "abcdefg"}, account.CodeInvalidRequest, ""},
		{"old incorrect", account.ChangePasswordRequest{OldPassword: "wrong!", NewPassword: "abcdefg", Confirmation: "abcdefg"}, account.CodeBadCredentials, "Old password incorrect."},
		{"too short before mismatch", account.ChangePasswordRequest{OldPassword: testPassword, NewPassword: "abc", Confirmation: "xyz"}, account.CodePasswordTooShort, ""},
		{"mismatch", account.ChangePasswordRequest{OldPassword: testPassword, NewPassword: "abcdefg", Confirmation: "abcdefh"}, account.CodePasswordMismatch, "New password doesn't match with confirmation password."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.register("alice")
			tok := h.login("alice")

			err := h.svc.ChangePassword(ctx, tok, tt.req)
			errutil.AssertErrorCode(t, err, tt.code)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
			acct, _ := h.account("alice")
			assert.Equal(t, sha512Hex(testPassword), acct.PasswordDigest)
		})
	}

	t.Run("unauthenticated checked before fields", func(t *testing.T) {
		h := newHarness(t)
		err := h.svc.ChangePassword(ctx, nil, account.ChangePasswordRequest{})
		errutil.AssertErrorCode(t, err, account.CodeNotAuthenticated)
	})
}

func TestService_ReadAttributes(t *testing.T) {
	ctx := context.Background()

	t.Run("backoffice reads a user", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		tok := h.seedLoggedIn("office", account.RoleBackoffice)

		attrs, err := h.svc.ReadAttributes(ctx, tok, "alice")
		require.NoError(t, err)
		assert.Equal(t, account.Attributes{
			Username: "alice",
			Email:    "alice@example.com",
			Created:  "01-03-2026 09:00:00",
			Profile:  account.DefaultProfile("alice"),
		}, attrs)
	})

	t.Run("user is denied", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		h.register("bob")
		tok := h.login("bob")

		_, err := h.svc.ReadAttributes(ctx, tok, "alice")
		errutil.AssertErrorCode(t, err, account.CodePermissionDenied)
	})

	t.Run("not found wins over permission", func(t *testing.T) {
		h := newHarness(t)
		h.register("bob")
		tok := h.login("bob")

		_, err := h.svc.ReadAttributes(ctx, tok, "ghost")
		errutil.AssertErrorCode(t, err, account.CodeNotFound)
	})
}

func TestService_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account with explicit role and profile", func(t *testing.T) {
		h := newHarness(t)
		created, err := h.svc.Bootstrap(ctx, account.BootstrapAccount{
			Username: "root",
			Password: testPassword,
			Email:    "root@example.com",
			Role:     account.RoleSuper,
			Profile:  account.ProfileUpdate{Visibility: ptr("PUBLIC"), Locality: ptr("HQ")},
		})
		require.NoError(t, err)
		assert.True(t, created)

		p := h.profile("root")
		assert.Equal(t, account.RoleSuper, p.Role)
		assert.Equal(t, account.VisibilityPublic, p.Visibility)
		assert.Equal(t, "HQ", p.Locality)
	})

	t.Run("skips existing usernames", func(t *testing.T) {
		h := newHarness(t)
		h.register("alice")
		created, err := h.svc.Bootstrap(ctx, account.BootstrapAccount{
			Username: "alice",
			Password: testPassword,
			Email:    "other@example.com",
			Role:     account.RoleSuper,
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, account.RoleUser, h.profile("alice").Role)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Bootstrap(ctx, account.BootstrapAccount{
			Username: "root",
			Password: testPassword,
			Email:    "root@example.com",
			Role:     "ROOT",
		})
		errutil.AssertErrorCode(t, err, account.CodeInvalidRole)
	})
}
