// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/account"
	"github.com/wardenhq/warden/internal/logging"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/internal/store/memory"
)

const testPassword = "s3cret!"

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// harness drives a Service over a memory store with a controllable clock and
// sequential token identifiers.
type harness struct {
	t     *testing.T
	svc   *account.Service
	store *memory.Store
	now   time.Time
	ids   int
}

func newHarness(t *testing.T, opts ...account.Option) *harness {
	t.Helper()
	h := &harness{t: t, store: memory.New(), now: epoch}
	base := []account.Option{
		account.WithClock(func() time.Time { return h.now }),
		account.WithIDGenerator(func() string {
			h.ids++
			return fmt.Sprintf("tok-%d", h.ids)
		}),
		account.WithLogger(logging.Discard()),
	}
	svc, err := account.NewService(h.store, append(base, opts...)...)
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func (h *harness) register(username string) {
	h.t.Helper()
	_, err := h.svc.Register(context.Background(), account.RegisterRequest{
		Username:     username,
		Password:     testPassword,
		Confirmation: testPassword,
		Email:        username + "@example.com",
	})
	require.NoError(h.t, err)
}

// seed creates username with role, bypassing the promotion policy.
func (h *harness) seed(username string, role account.Role) {
	h.t.Helper()
	created, err := h.svc.Bootstrap(context.Background(), account.BootstrapAccount{
		Username: username,
		Password: testPassword,
		Email:    username + "@example.com",
		Role:     role,
	})
	require.NoError(h.t, err)
	require.True(h.t, created)
}

func (h *harness) login(username string) *account.Token {
	h.t.Helper()
	tok, err := h.svc.Login(context.Background(), username, testPassword)
	require.NoError(h.t, err)
	return &tok
}

// seedLoggedIn seeds username with role and logs it in.
func (h *harness) seedLoggedIn(username string, role account.Role) *account.Token {
	h.t.Helper()
	h.seed(username, role)
	return h.login(username)
}

func readRecord[T any](h *harness, key store.Key) (T, bool) {
	h.t.Helper()
	var rec T
	found := false
	err := h.store.InTransaction(context.Background(), func(ctx context.Context, txn store.Txn) error {
		data, err := txn.Get(ctx, key)
		if store.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	require.NoError(h.t, err)
	return rec, found
}

func (h *harness) profile(username string) account.Profile {
	h.t.Helper()
	p, found := readRecord[account.Profile](h, store.ProfileKey(username))
	require.True(h.t, found, "profile of %s", username)
	return p
}

func (h *harness) account(username string) (account.Account, bool) {
	h.t.Helper()
	return readRecord[account.Account](h, store.UserKey(username))
}

func (h *harness) token(username string) (account.Token, bool) {
	h.t.Helper()
	return readRecord[account.Token](h, store.TokenKey(username))
}

func ptr(s string) *string { return &s }
