// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/pkg/errutil"
)

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Username     string
	Password     string
	Confirmation string
	Email        string
}

// ProfileUpdate carries optional profile fields. A nil field keeps the
// current value.
type ProfileUpdate struct {
	Visibility        *string
	Landline          *string
	MobilePhone       *string
	Address           *string
	ComplementAddress *string
	Locality          *string
}

// ChangePasswordRequest is the input to ChangePassword.
type ChangePasswordRequest struct {
	OldPassword  string
	NewPassword  string
	Confirmation string
}

// Attributes is the readable snapshot of an account and its profile. The
// credential digest is never included.
type Attributes struct {
	Username string
	Email    string
	Created  string
	Profile  Profile
}

func checkNewPassword(password, confirmation string) error {
	if password != confirmation {
		return oops.Code(CodePasswordMismatch).Errorf("Passwords do not match.")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errTooShort()
	}
	return nil
}

func errTooShort() error {
	return oops.Code(CodePasswordTooShort).With("min", MinPasswordLength).
		Errorf("Passwords must be longer than %d characters.", MinPasswordLength)
}

// Register creates an account and its default profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Account, error) {
	var created Account
	err := s.run(ctx, "register", req.Username, req.Username, func(ctx context.Context, txn store.Txn) error {
		switch {
		case req.Username == "":
			return errMissing("username")
		case req.Password == "":
			return errMissing("password")
		case req.Confirmation == "":
			return errMissing("confirmation")
		case req.Email == "":
			return errMissing("email")
		}
		if !utf8.ValidString(req.Username) {
			return errInvalidUsername(req.Username)
		}
		if err := checkNewPassword(req.Password, req.Confirmation); err != nil {
			return err
		}

		acct, err := s.createAccount(ctx, txn, req.Username, req.Password, req.Email, DefaultProfile(req.Username))
		if err != nil {
			return err
		}
		created = acct
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return created, nil
}

// createAccount adds the account and profile records, failing with
// ACCOUNT_ALREADY_EXISTS when the username is taken.
func (s *Service) createAccount(ctx context.Context, txn store.Txn, username, password, email string, profile Profile) (Account, error) {
	_, found, err := lookup[Account](ctx, txn, store.UserKey(username))
	if err != nil {
		return Account{}, err
	}
	if found {
		return Account{}, errAlreadyExists(username)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return Account{}, oops.Code(CodeHashFailed).With("username", username).Wrap(err)
	}
	acct := Account{
		Username:       username,
		PasswordDigest: digest,
		Email:          email,
		CreatedAt:      s.clock(),
	}
	records := []struct {
		key store.Key
		rec any
	}{
		{store.UserKey(username), acct},
		{store.ProfileKey(username), profile},
	}
	for _, r := range records {
		if err := insert(ctx, txn, r.key, r.rec); err != nil {
			if errors.Is(err, store.ErrKeyExists) {
				return Account{}, errAlreadyExists(username)
			}
			return Account{}, err
		}
	}
	return acct, nil
}

func errAlreadyExists(username string) error {
	return oops.Code(CodeAlreadyExists).With("username", username).
		Errorf("Username %s already exists.", username)
}

// Delete removes target's account, profile and token. A USER may delete only
// itself; any higher role may delete others but not itself.
func (s *Service) Delete(ctx context.Context, presented *Token, target string) error {
	return s.run(ctx, "delete", tokenOwner(presented), target, func(ctx context.Context, txn store.Txn) error {
		if target == "" {
			return errMissing("username")
		}
		caller, err := s.authenticate(ctx, txn, presented)
		if err != nil {
			return err
		}
		if _, err := requireAccount(ctx, txn, target); err != nil {
			return err
		}

		allowed := CanDeleteOther(caller.Role)
		if target == caller.Username {
			allowed = caller.Role == RoleUser
		}
		if !allowed {
			return oops.Code(CodePermissionDenied).With("actor", caller.Username).With("operation", "delete").
				Errorf("%s doesn't have permission to remove this user.", caller.Username)
		}

		for _, key := range []store.Key{store.UserKey(target), store.ProfileKey(target), store.TokenKey(target)} {
			if err := remove(ctx, txn, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// ModifyProfile updates the caller's own visibility and contact fields. Role
// and state are always carried over unchanged.
func (s *Service) ModifyProfile(ctx context.Context, presented *Token, upd ProfileUpdate) (Profile, error) {
	var updated Profile
	owner := tokenOwner(presented)
	err := s.run(ctx, "modify_profile", owner, owner, func(ctx context.Context, txn store.Txn) error {
		caller, err := s.authenticate(ctx, txn, presented)
		if err != nil {
			return err
		}
		if _, err := requireAccount(ctx, txn, caller.Username); err != nil {
			return err
		}

		var visibility Visibility
		if upd.Visibility != nil {
			if visibility, err = ParseVisibility(*upd.Visibility); err != nil {
				return err
			}
		}

		profile, err := mustLookup[Profile](ctx, txn, store.ProfileKey(caller.Username))
		if err != nil {
			return err
		}
		if upd.Visibility != nil {
			profile.Visibility = visibility
		}
		setIfPresent(&profile.Landline, upd.Landline)
		setIfPresent(&profile.MobilePhone, upd.MobilePhone)
		setIfPresent(&profile.Address, upd.Address)
		setIfPresent(&profile.ComplementAddress, upd.ComplementAddress)
		setIfPresent(&profile.Locality, upd.Locality)

		if err := replace(ctx, txn, store.ProfileKey(caller.Username), profile); err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return updated, nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ChangePassword replaces the caller's digest, keeping email and creation time.
func (s *Service) ChangePassword(ctx context.Context, presented *Token, req ChangePasswordRequest) error {
	owner := tokenOwner(presented)
	return s.run(ctx, "change_password", owner, owner, func(ctx context.Context, txn store.Txn) error {
		caller, err := s.authenticate(ctx, txn, presented)
		if err != nil {
			return err
		}
		switch {
		case req.OldPassword == "":
			return errMissing("oldPassword")
		case req.NewPassword == "":
			return errMissing("password")
		case req.Confirmation == "":
			return errMissing("confirmation")
		}

		acct, err := requireAccount(ctx, txn, caller.Username)
		if err != nil {
			return err
		}
		ok, err := s.hasher.Verify(req.OldPassword, acct.PasswordDigest)
		if err != nil {
			return oops.Code(CodeHashFailed).With("username", caller.Username).Wrap(err)
		}
		if !ok {
			return oops.Code(CodeBadCredentials).With("username", caller.Username).Errorf("Old password incorrect.")
		}
		if utf8.RuneCountInString(req.NewPassword) < MinPasswordLength {
			return errTooShort()
		}
		if req.NewPassword != req.Confirmation {
			return oops.Code(CodePasswordMismatch).
				Errorf("New password doesn't match with confirmation password.")
		}

		digest, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return oops.Code(CodeHashFailed).With("username", caller.Username).Wrap(err)
		}
		acct.PasswordDigest = digest
		return replace(ctx, txn, store.UserKey(caller.Username), acct)
	})
}

// ReadAttributes returns target's account and profile to a BACKOFFICE or
// higher caller.
func (s *Service) ReadAttributes(ctx context.Context, presented *Token, target string) (Attributes, error) {
	var attrs Attributes
	err := s.run(ctx, "read_attributes", tokenOwner(presented), target, func(ctx context.Context, txn store.Txn) error {
		if target == "" {
			return errMissing("username")
		}
		caller, err := s.authenticate(ctx, txn, presented)
		if err != nil {
			return err
		}
		acct, err := requireAccount(ctx, txn, target)
		if err != nil {
			return err
		}
		if !CanReadAttributes(caller.Role) {
			return errDenied(caller.Username, "read_attributes")
		}
		profile, err := mustLookup[Profile](ctx, txn, store.ProfileKey(target))
		if err != nil {
			return err
		}
		attrs = Attributes{
			Username: acct.Username,
			Email:    acct.Email,
			Created:  acct.CreatedAt.Format(TimestampLayout),
			Profile:  profile,
		}
		return nil
	})
	if err != nil {
		return Attributes{}, err
	}
	return attrs, nil
}

// BootstrapAccount describes an account provisioned outside the role policy.
type BootstrapAccount struct {
	Username string
	Password string
	Email    string
	Role     Role
	Profile  ProfileUpdate
}

// Bootstrap creates an account with an explicit role, bypassing the
// promotion policy. It reports false without error when username exists.
func (s *Service) Bootstrap(ctx context.Context, seed BootstrapAccount) (bool, error) {
	created := false
	err := s.run(ctx, "bootstrap", "", seed.Username, func(ctx context.Context, txn store.Txn) error {
		switch {
		case seed.Username == "":
			return errMissing("username")
		case seed.Password == "":
			return errMissing("password")
		case seed.Email == "":
			return errMissing("email")
		}
		if err := checkNewPassword(seed.Password, seed.Password); err != nil {
			return err
		}
		if !seed.Role.Valid() {
			return oops.Code(CodeInvalidRole).With("role", string(seed.Role)).Errorf("Unknown role %q.", seed.Role)
		}

		profile := DefaultProfile(seed.Username)
		profile.Role = seed.Role
		if seed.Profile.Visibility != nil {
			v, err := ParseVisibility(*seed.Profile.Visibility)
			if err != nil {
				return err
			}
			profile.Visibility = v
		}
		setIfPresent(&profile.Landline, seed.Profile.Landline)
		setIfPresent(&profile.MobilePhone, seed.Profile.MobilePhone)
		setIfPresent(&profile.Address, seed.Profile.Address)
		setIfPresent(&profile.ComplementAddress, seed.Profile.ComplementAddress)
		setIfPresent(&profile.Locality, seed.Profile.Locality)

		_, err := s.createAccount(ctx, txn, seed.Username, seed.Password, seed.Email, profile)
		if errutil.Code(err) == CodeAlreadyExists {
			return nil
		}
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
