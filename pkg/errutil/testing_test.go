// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/wardenhq/warden/pkg/errutil"
)

func TestAssertErrorCode_WrappedCode(t *testing.T) {
	err := oops.With("operation", "login").Wrap(oops.Code("AUTH_BAD_CREDENTIALS").Errorf("Incorrect password."))
	errutil.AssertErrorCode(t, err, "AUTH_BAD_CREDENTIALS")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.Code("ACCOUNT_NOT_FOUND").With("username", "alice").Errorf("missing")
	errutil.AssertErrorContext(t, err, "username", "alice")
}
