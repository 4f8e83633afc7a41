// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"context"

	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
)

// targetProfile runs the preamble shared by administrative operations: target
// present, caller authenticated, target account exists. It returns the caller
// and the target's profile.
func (s *Service) targetProfile(ctx context.Context, txn store.Txn, presented *Token, target string) (Caller, Profile, error) {
	if target == "" {
		return Caller{}, Profile{}, errMissing("username")
	}
	caller, err := s.authenticate(ctx, txn, presented)
	if err != nil {
		return Caller{}, Profile{}, err
	}
	if _, err := requireAccount(ctx, txn, target); err != nil {
		return Caller{}, Profile{}, err
	}
	profile, err := mustLookup[Profile](ctx, txn, store.ProfileKey(target))
	if err != nil {
		return Caller{}, Profile{}, err
	}
	return caller, profile, nil
}

// ChangeRole promotes target to role. When target holds a token record, the
// record is rewritten with the new role and its identifier and instants kept,
// so the owner's session stays valid under the new role.
func (s *Service) ChangeRole(ctx context.Context, presented *Token, target, role string) (Role, error) {
	var applied Role
	err := s.run(ctx, "change_role", tokenOwner(presented), target, func(ctx context.Context, txn store.Txn) error {
		caller, profile, err := s.targetProfile(ctx, txn, presented, target)
		if err != nil {
			return err
		}
		requested, err := ParseRole(role)
		if err != nil {
			return err
		}
		if !CanChangeRole(caller.Role, profile.Role, requested) {
			return oops.Code(CodePermissionDenied).With("actor", caller.Username).With("operation", "change_role").
				With("current", string(profile.Role)).With("requested", string(requested)).
				Errorf("No permission to change role.")
		}

		profile.Role = requested
		if err := replace(ctx, txn, store.ProfileKey(target), profile); err != nil {
			return err
		}

		tok, found, err := lookup[Token](ctx, txn, store.TokenKey(target))
		if err != nil {
			return err
		}
		if found {
			tok.Role = requested
			if err := replace(ctx, txn, store.TokenKey(target), tok); err != nil {
				return err
			}
		}
		applied = requested
		return nil
	})
	if err != nil {
		return "", err
	}
	return applied, nil
}

// ChangeState sets target's state. Moving to DISABLED also deletes the
// target's token; moving to ENABLED leaves tokens alone.
func (s *Service) ChangeState(ctx context.Context, presented *Token, target, state string) (State, error) {
	var applied State
	err := s.run(ctx, "change_state", tokenOwner(presented), target, func(ctx context.Context, txn store.Txn) error {
		caller, profile, err := s.targetProfile(ctx, txn, presented, target)
		if err != nil {
			return err
		}
		requested, err := ParseState(state)
		if err != nil {
			return err
		}
		if !CanChangeState(caller.Role, profile.Role) {
			return oops.Code(CodePermissionDenied).With("actor", caller.Username).With("operation", "change_state").
				With("target_role", string(profile.Role)).
				Errorf("No permission to change state.")
		}

		profile.State = requested
		if err := replace(ctx, txn, store.ProfileKey(target), profile); err != nil {
			return err
		}
		if requested == StateDisabled {
			if err := remove(ctx, txn, store.TokenKey(target)); err != nil {
				return err
			}
		}
		applied = requested
		return nil
	})
	if err != nil {
		return "", err
	}
	return applied, nil
}

// Disable marks an enabled target DISABLED and deletes its token.
func (s *Service) Disable(ctx context.Context, presented *Token, target string) error {
	return s.run(ctx, "disable", tokenOwner(presented), target, func(ctx context.Context, txn store.Txn) error {
		caller, profile, err := s.targetProfile(ctx, txn, presented, target)
		if err != nil {
			return err
		}
		if !CanDisable(caller.Role) {
			return errDenied(caller.Username, "disable")
		}
		if profile.State != StateEnabled {
			return oops.Code(CodeAlreadyDisabled).With("username", target).
				Errorf("User %s already disabled.", target)
		}

		profile.State = StateDisabled
		if err := replace(ctx, txn, store.ProfileKey(target), profile); err != nil {
			return err
		}
		return remove(ctx, txn, store.TokenKey(target))
	})
}
