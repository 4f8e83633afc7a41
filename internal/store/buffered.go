// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package store

import (
	"bytes"
	"context"
)

// ReadFunc fetches the committed record for key from a backend.
type ReadFunc func(ctx context.Context, key Key) ([]byte, error)

// pendingWrite is the buffered final state of one key.
type pendingWrite struct {
	data    []byte
	deleted bool
}

// BufferedTxn implements Txn for backends that apply writes only at commit.
// Reads fall through to the backend unless the key was written earlier in the
// same transaction.
type BufferedTxn struct {
	read   ReadFunc
	order  []Key
	writes map[Key]pendingWrite
}

// NewBufferedTxn creates a BufferedTxn reading committed state through read.
func NewBufferedTxn(read ReadFunc) *BufferedTxn {
	return &BufferedTxn{
		read:   read,
		writes: make(map[Key]pendingWrite),
	}
}

// Get returns the buffered record for key if one exists, else the committed one.
func (t *BufferedTxn) Get(ctx context.Context, key Key) ([]byte, error) {
	if w, ok := t.writes[key]; ok {
		if w.deleted {
			return nil, ErrNotFound
		}
		return bytes.Clone(w.data), nil
	}
	return t.read(ctx, key)
}

// Add buffers an insert after checking the key is free.
func (t *BufferedTxn) Add(ctx context.Context, key Key, record []byte) error {
	_, err := t.Get(ctx, key)
	switch {
	case err == nil:
		return ErrKeyExists
	case !IsNotFound(err):
		return err
	}
	t.set(key, pendingWrite{data: bytes.Clone(record)})
	return nil
}

// Delete buffers a delete.
func (t *BufferedTxn) Delete(_ context.Context, key Key) error {
	t.set(key, pendingWrite{deleted: true})
	return nil
}

func (t *BufferedTxn) set(key Key, w pendingWrite) {
	if _, seen := t.writes[key]; !seen {
		t.order = append(t.order, key)
	}
	t.writes[key] = w
}

// Len returns the number of keys with a buffered write.
func (t *BufferedTxn) Len() int {
	return len(t.order)
}

// EachWrite calls fn for every buffered key in first-write order. data is nil
// when the final state of the key is deleted.
func (t *BufferedTxn) EachWrite(fn func(key Key, data []byte, deleted bool)) {
	for _, key := range t.order {
		w := t.writes[key]
		fn(key, w.data, w.deleted)
	}
}

var _ Txn = (*BufferedTxn)(nil)
