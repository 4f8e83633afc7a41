// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package account implements account registration, session tokens, and the
// role-governed lifecycle operations on user accounts.
//
// # Records
//
// Three records exist per user, all keyed by username in the entity store:
//   - Account (kind User) - credential digest, email, creation time
//   - Profile (kind Profile) - visibility, role, state, contact details
//   - Token (kind Token) - the single live session token, if any
//
// Records are never updated in place. Every mutation deletes the old record
// and adds its replacement within the same transaction.
//
// # Authorization
//
// Every operation other than Register and Login takes the caller's presented
// Token. The stored token record is authoritative: the presented identifier
// must match it, expiry is read from it, and the caller's role is its role
// snapshot. Permission decisions are the pure functions in policy.go.
//
// # Services
//
// Service runs each operation as one store transaction. Any failure rolls the
// transaction back; errors carry oops codes that KindOf maps onto the
// validation, authentication, authorization, not-found, conflict and internal
// classes.
package account
