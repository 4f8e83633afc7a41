// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/pkg/errutil"
)

// Error codes attached to every failure this package returns.
const (
	CodeInvalidRequest    = "ACCOUNT_INVALID_REQUEST"
	CodePasswordMismatch  = "ACCOUNT_PASSWORD_MISMATCH"
	CodePasswordTooShort  = "ACCOUNT_PASSWORD_TOO_SHORT"
	CodeInvalidRole       = "ACCOUNT_INVALID_ROLE"
	CodeInvalidState      = "ACCOUNT_INVALID_STATE"
	CodeInvalidVisibility = "ACCOUNT_INVALID_VISIBILITY"

	CodeNotAuthenticated = "AUTH_NOT_AUTHENTICATED"
	CodeAlreadyLoggedIn  = "AUTH_ALREADY_LOGGED_IN"
	CodeBadCredentials   = "AUTH_BAD_CREDENTIALS"
	CodeAccountDisabled  = "AUTH_ACCOUNT_DISABLED"

	CodePermissionDenied = "ACCOUNT_PERMISSION_DENIED"
	CodeNotFound         = "ACCOUNT_NOT_FOUND"

	CodeAlreadyExists   = "ACCOUNT_ALREADY_EXISTS"
	CodeAlreadyDisabled = "ACCOUNT_ALREADY_DISABLED"
	CodeStoreConflict   = "STORE_CONFLICT"

	CodeCorruptRecord = "ACCOUNT_CORRUPT_RECORD"
	CodeHashFailed    = "ACCOUNT_HASH_FAILED"
)

// Kind is the class of an error, used to choose a response status.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

var codeKinds = map[string]Kind{
	CodeInvalidRequest:    KindValidation,
	CodePasswordMismatch:  KindValidation,
	CodePasswordTooShort:  KindValidation,
	CodeInvalidRole:       KindValidation,
	CodeInvalidState:      KindValidation,
	CodeInvalidVisibility: KindValidation,

	CodeNotAuthenticated: KindAuthentication,
	CodeAlreadyLoggedIn:  KindAuthentication,
	CodeBadCredentials:   KindAuthentication,
	CodeAccountDisabled:  KindAuthentication,

	CodePermissionDenied: KindAuthorization,
	CodeNotFound:         KindNotFound,

	CodeAlreadyExists:   KindConflict,
	CodeAlreadyDisabled: KindConflict,
	CodeStoreConflict:   KindConflict,
}

// KindOf classifies err. Errors without a known code are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if store.IsConflict(err) {
		return KindConflict
	}
	if kind, ok := codeKinds[errutil.Code(err)]; ok {
		return kind
	}
	return KindInternal
}

func errNotAuthenticated() error {
	return oops.Code(CodeNotAuthenticated).Errorf("User not logged.")
}

func errNotFound(username string) error {
	return oops.Code(CodeNotFound).With("username", username).
		Errorf("User with username %s does not exist.", username)
}

func errDenied(actor, operation string) error {
	return oops.Code(CodePermissionDenied).With("actor", actor).With("operation", operation).
		Errorf("User not allowed to do this operation.")
}

func errMissing(field string) error {
	return oops.Code(CodeInvalidRequest).With("field", field).
		Errorf("Null data present, please fill all the information necessary.")
}

func errInvalidUsername(username string) error {
	return oops.Code(CodeInvalidRequest).With("field", "username").
		Errorf("Username %q is not valid UTF-8.", username)
}
