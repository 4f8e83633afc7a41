// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import "slices"

// CanChangeRole reports whether actor may move a target from current to
// requested. Only USER accounts can be promoted, to BACKOFFICE by BACKEND or
// SUPER and to BACKEND by SUPER. Nothing is ever demoted.
func CanChangeRole(actor, current, requested Role) bool {
	if current != RoleUser {
		return false
	}
	switch requested {
	case RoleBackoffice:
		return actor == RoleBackend || actor == RoleSuper
	case RoleBackend:
		return actor == RoleSuper
	}
	return false
}

// stateTargets lists, per actor role, the target roles whose state it may change.
var stateTargets = map[Role][]Role{
	RoleBackoffice: {RoleUser},
	RoleBackend:    {RoleUser, RoleBackoffice},
	RoleSuper:      {RoleUser, RoleBackoffice, RoleBackend},
}

// CanChangeState reports whether actor may enable or disable an account
// holding target.
func CanChangeState(actor, target Role) bool {
	return slices.Contains(stateTargets[actor], target)
}

// CanDisable reports whether actor may use the dedicated disable operation.
func CanDisable(actor Role) bool {
	return actor == RoleBackend || actor == RoleSuper
}

// CanDeleteOther reports whether actor may delete an account other than its own.
func CanDeleteOther(actor Role) bool {
	return actor == RoleBackoffice || actor == RoleBackend || actor == RoleSuper
}

// CanReadAttributes reports whether actor may read another account's attributes.
func CanReadAttributes(actor Role) bool {
	return actor == RoleBackoffice || actor == RoleBackend || actor == RoleSuper
}
