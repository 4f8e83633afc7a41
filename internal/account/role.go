// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"strings"

	"github.com/samber/oops"
)

// Role is a tier in the USER < BACKOFFICE < BACKEND < SUPER hierarchy.
type Role string

// Roles.
const (
	RoleUser       Role = "USER"
	RoleBackoffice Role = "BACKOFFICE"
	RoleBackend    Role = "BACKEND"
	RoleSuper      Role = "SUPER"
)

// legacyRoleCodes are the short codes older clients send.
var legacyRoleCodes = map[string]Role{
	"U":   RoleUser,
	"GBO": RoleBackoffice,
	"GA":  RoleBackend,
	"SU":  RoleSuper,
}

// ParseRole accepts a canonical role name or a legacy code, case-insensitively.
func ParseRole(s string) (Role, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch r := Role(name); r {
	case RoleUser, RoleBackoffice, RoleBackend, RoleSuper:
		return r, nil
	}
	if r, ok := legacyRoleCodes[name]; ok {
		return r, nil
	}
	return "", oops.Code(CodeInvalidRole).With("role", s).Errorf("Unknown role %q.", s)
}

// Rank orders roles from 0 (USER) to 3 (SUPER). Unknown roles rank -1.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 0
	case RoleBackoffice:
		return 1
	case RoleBackend:
		return 2
	case RoleSuper:
		return 3
	}
	return -1
}

// Valid reports whether r is one of the four roles.
func (r Role) Valid() bool { return r.Rank() >= 0 }

// LegacyCode returns the short code for r.
func (r Role) LegacyCode() string {
	for code, role := range legacyRoleCodes {
		if role == r {
			return code
		}
	}
	return ""
}

// State is an account's enablement.
type State string

// States.
const (
	StateEnabled  State = "ENABLED"
	StateDisabled State = "DISABLED"
)

// ParseState accepts ENABLED or DISABLED, case-insensitively.
func ParseState(s string) (State, error) {
	switch st := State(strings.ToUpper(strings.TrimSpace(s))); st {
	case StateEnabled, StateDisabled:
		return st, nil
	}
	return "", oops.Code(CodeInvalidState).With("state", s).Errorf("Unknown state %q.", s)
}

// Visibility controls whether a profile is public.
type Visibility string

// Visibilities.
const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// ParseVisibility accepts PUBLIC or PRIVATE, case-insensitively.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(strings.ToUpper(strings.TrimSpace(s))); v {
	case VisibilityPublic, VisibilityPrivate:
		return v, nil
	}
	return "", oops.Code(CodeInvalidVisibility).With("visibility", s).Errorf("Unknown profile visibility %q.", s)
}
