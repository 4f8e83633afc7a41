// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package seed provisions accounts with explicit roles from a YAML file.
//
// Seed files exist because the role policy only lets SUPER grant BACKEND and
// nobody grant SUPER, so the first privileged accounts must come from outside
// the API:
//
//	accounts:
//	  - username: root
//	    password: change-me-now
//	    email: root@example.com
//	    role: SUPER
package seed

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/wardenhq/warden/internal/account"
)

// File is a parsed seed file.
type File struct {
	Accounts []Account `json:"accounts" yaml:"accounts" jsonschema:"minItems=1"`
}

// Account is one account to provision.
type Account struct {
	Username string   `json:"username" yaml:"username" jsonschema:"minLength=1"`
	Password string   `json:"password" yaml:"password" jsonschema:"minLength=6"`
	Email    string   `json:"email" yaml:"email" jsonschema:"minLength=1"`
	Role     string   `json:"role" yaml:"role" jsonschema:"enum=USER,enum=BACKOFFICE,enum=BACKEND,enum=SUPER,enum=U,enum=GBO,enum=GA,enum=SU"`
	Profile  *Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// Profile holds optional profile fields for a seeded account.
type Profile struct {
	Visibility        string `json:"visibility,omitempty" yaml:"visibility,omitempty" jsonschema:"enum=PUBLIC,enum=PRIVATE"`
	Landline          string `json:"landline,omitempty" yaml:"landline,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty" yaml:"mobilePhone,omitempty"`
	Address           string `json:"address,omitempty" yaml:"address,omitempty"`
	ComplementAddress string `json:"complementAddress,omitempty" yaml:"complementAddress,omitempty"`
	Locality          string `json:"locality,omitempty" yaml:"locality,omitempty"`
}

// Parse validates data against the seed schema and decodes it.
func Parse(data []byte) (*File, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").Wrapf(err, "invalid YAML")
	}
	return &f, nil
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return f, nil
}

// Check reports semantic errors the schema cannot express: unknown role
// names and duplicate usernames.
func Check(f *File) error {
	seen := make(map[string]bool, len(f.Accounts))
	for _, a := range f.Accounts {
		if seen[a.Username] {
			return oops.Code("SEED_INVALID").With("username", a.Username).
				Errorf("duplicate username %q", a.Username)
		}
		seen[a.Username] = true
		if _, err := a.bootstrapAccount(); err != nil {
			return err
		}
	}
	return nil
}

// Bootstrapper creates accounts outside the role policy.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, seed account.BootstrapAccount) (bool, error)
}

// Result lists what Apply did.
type Result struct {
	Created []string
	Skipped []string
}

// Apply provisions every account in f, one transaction each. Existing
// usernames are skipped. Apply stops at the first failure; accounts already
// created stay created.
func Apply(ctx context.Context, b Bootstrapper, f *File, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result
	for _, a := range f.Accounts {
		seedAccount, err := a.bootstrapAccount()
		if err != nil {
			return res, err
		}
		created, err := b.Bootstrap(ctx, seedAccount)
		if err != nil {
			return res, oops.Code("SEED_FAILED").With("username", a.Username).Wrap(err)
		}
		if created {
			logger.InfoContext(ctx, "seeded account", "username", a.Username, "role", string(seedAccount.Role))
			res.Created = append(res.Created, a.Username)
		} else {
			logger.InfoContext(ctx, "account already exists, skipping", "username", a.Username)
			res.Skipped = append(res.Skipped, a.Username)
		}
	}
	return res, nil
}

func (a Account) bootstrapAccount() (account.BootstrapAccount, error) {
	role, err := account.ParseRole(a.Role)
	if err != nil {
		return account.BootstrapAccount{}, oops.With("username", a.Username).Wrap(err)
	}
	out := account.BootstrapAccount{
		Username: a.Username,
		Password: a.Password,
		Email:    a.Email,
		Role:     role,
	}
	if p := a.Profile; p != nil {
		out.Profile = account.ProfileUpdate{
			Visibility:        optional(p.Visibility),
			Landline:          optional(p.Landline),
			MobilePhone:       optional(p.MobilePhone),
			Address:           optional(p.Address),
			ComplementAddress: optional(p.ComplementAddress),
			Locality:          optional(p.Locality),
		}
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
