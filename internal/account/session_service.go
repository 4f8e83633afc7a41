// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"context"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
)

// Login verifies credentials and issues a session token. The checks run in a
// fixed order: an unexpired token already held by username, then account
// existence, then the password, then the account state. An empty password
// is checked like any other and fails as bad credentials. An expired token
// does not block login and is replaced.
func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	var issued Token
	err := s.run(ctx, "login", username, username, func(ctx context.Context, txn store.Txn) error {
		if username == "" {
			return errMissing("username")
		}
		if !utf8.ValidString(username) {
			return errInvalidUsername(username)
		}

		now := s.clock()
		existing, found, err := lookup[Token](ctx, txn, store.TokenKey(username))
		if err != nil {
			return err
		}
		if found && !existing.Expired(now) {
			return oops.Code(CodeAlreadyLoggedIn).With("username", username).
				Errorf("User with username %s already logged in.", username)
		}

		acct, err := requireAccount(ctx, txn, username)
		if err != nil {
			return err
		}

		ok, err := s.hasher.Verify(password, acct.PasswordDigest)
		if err != nil {
			return oops.Code(CodeHashFailed).With("username", username).Wrap(err)
		}
		if !ok {
			return oops.Code(CodeBadCredentials).With("username", username).Errorf("Incorrect password.")
		}

		profile, err := mustLookup[Profile](ctx, txn, store.ProfileKey(username))
		if err != nil {
			return err
		}
		if profile.State == StateDisabled {
			return oops.Code(CodeAccountDisabled).With("username", username).Errorf("Account disabled.")
		}

		if s.hasher.NeedsUpgrade(acct.PasswordDigest) {
			digest, err := s.hasher.Hash(password)
			if err != nil {
				return oops.Code(CodeHashFailed).With("username", username).Wrap(err)
			}
			acct.PasswordDigest = digest
			if err := replace(ctx, txn, store.UserKey(username), acct); err != nil {
				return err
			}
		}

		issued = Token{
			Username:  username,
			ID:        s.newID(),
			Role:      profile.Role,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		return replace(ctx, txn, store.TokenKey(username), issued)
	})
	if err != nil {
		return Token{}, err
	}
	return issued, nil
}

// Logout deletes the caller's token if the presented token is still valid.
func (s *Service) Logout(ctx context.Context, presented *Token) error {
	owner := tokenOwner(presented)
	return s.run(ctx, "logout", owner, owner, func(ctx context.Context, txn store.Txn) error {
		caller, err := s.authenticate(ctx, txn, presented)
		if err != nil {
			return err
		}
		return remove(ctx, txn, store.TokenKey(caller.Username))
	})
}
