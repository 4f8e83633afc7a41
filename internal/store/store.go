// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package store defines the entity store contract shared by every backend.
//
// Records are addressed by a flat (Kind, Name) key and carried as opaque JSON
// documents. All reads and writes happen inside a transaction opened with
// Store.InTransaction; a transaction either commits every write or none.
package store

import (
	"context"
	"errors"
)

// Kind names a record family.
type Kind string

// Record kinds.
const (
	KindUser    Kind = "User"
	KindProfile Kind = "Profile"
	KindToken   Kind = "Token"
)

// Key addresses one record.
type Key struct {
	Kind Kind
	Name string
}

// String renders the key as Kind/Name.
func (k Key) String() string {
	return string(k.Kind) + "/" + k.Name
}

// UserKey returns the account key for username.
func UserKey(username string) Key { return Key{Kind: KindUser, Name: username} }

// ProfileKey returns the profile key for username.
func ProfileKey(username string) Key { return Key{Kind: KindProfile, Name: username} }

// TokenKey returns the session token key for username.
func TokenKey(username string) Key { return Key{Kind: KindToken, Name: username} }

// Sentinel errors returned by every backend. Backends return ErrNotFound and
// ErrKeyExists unwrapped so callers can attach their own codes; ErrConflict
// arrives wrapped with the STORE_CONFLICT code.
var (
	ErrNotFound  = errors.New("record not found")
	ErrKeyExists = errors.New("record already exists")
	ErrConflict  = errors.New("transaction conflict")
)

// Txn is a single transaction's view of the store. A Txn observes its own
// uncommitted writes.
type Txn interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Add inserts a record. It returns ErrKeyExists if key already holds a
	// record and never overwrites.
	Add(ctx context.Context, key Key, record []byte) error

	// Delete removes the record under key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key Key) error
}

// TxFunc is the body of a transaction.
type TxFunc func(ctx context.Context, txn Txn) error

// Store is a transactional entity store.
type Store interface {
	// InTransaction begins a transaction and calls fn. If fn returns nil the
	// transaction is committed; otherwise it is rolled back and fn's error is
	// returned unchanged. A commit that loses a race with a concurrent
	// transaction fails with an error matching ErrConflict.
	InTransaction(ctx context.Context, fn TxFunc) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Replace swaps the record under key for record: delete followed by add.
func Replace(ctx context.Context, txn Txn, key Key, record []byte) error {
	if err := txn.Delete(ctx, key); err != nil {
		return err
	}
	return txn.Add(ctx, key, record)
}

// IsNotFound reports whether err means the record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a lost optimistic or serialization race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
