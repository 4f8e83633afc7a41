// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package memory provides an in-process entity store with optimistic
// multi-key transactions.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
)

// Store keeps records in a map. Every key carries a version that is bumped on
// each committed write (including deletes); a transaction commits only if
// every key it read still has the version it observed.
type Store struct {
	mu       sync.RWMutex
	records  map[store.Key][]byte
	versions map[store.Key]uint64
	closed   bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		records:  make(map[store.Key][]byte),
		versions: make(map[store.Key]uint64),
	}
}

// InTransaction runs fn against a buffered transaction and commits its writes
// atomically if no key it read has changed in the meantime.
func (s *Store) InTransaction(ctx context.Context, fn store.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("STORE_TX_BEGIN_FAILED").Wrap(err)
	}

	observed := make(map[store.Key]uint64)
	txn := store.NewBufferedTxn(func(ctx context.Context, key store.Key) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, oops.Code("STORE_READ_FAILED").With("key", key.String()).Wrap(err)
		}
		s.mu.RLock()
		data, ok := s.records[key]
		version := s.versions[key]
		closed := s.closed
		s.mu.RUnlock()

		if closed {
			return nil, oops.Code("STORE_CLOSED").Errorf("memory store is closed")
		}
		if prior, seen := observed[key]; seen && prior != version {
			return nil, oops.Code("STORE_CONFLICT").With("key", key.String()).Wrap(store.ErrConflict)
		}
		observed[key] = version
		if !ok {
			return nil, store.ErrNotFound
		}
		return bytes.Clone(data), nil
	})

	if err := fn(ctx, txn); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return oops.Code("STORE_CLOSED").Errorf("memory store is closed")
	}
	for key, version := range observed {
		if s.versions[key] != version {
			return oops.Code("STORE_CONFLICT").With("key", key.String()).Wrap(store.ErrConflict)
		}
	}
	txn.EachWrite(func(key store.Key, data []byte, deleted bool) {
		if deleted {
			delete(s.records, key)
		} else {
			s.records[key] = data
		}
		s.versions[key]++
	})
	return nil
}

// Ping fails once the store is closed.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return oops.Code("STORE_CLOSED").Errorf("memory store is closed")
	}
	return nil
}

// Close marks the store closed. Records are kept so Len still reports them.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ store.Store = (*Store)(nil)
