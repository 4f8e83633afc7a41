// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package redis implements the entity store on Redis using optimistic
// WATCH/MULTI/EXEC transactions.
//
// Every key a transaction reads is WATCHed before the read. Writes are
// buffered and sent in one MULTI/EXEC block at commit; if any watched key
// changed, EXEC aborts and the commit reports store.ErrConflict.
package redis

import (
	"context"
	"errors"

	red "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
)

// DefaultPrefix namespaces keys when no prefix is configured.
const DefaultPrefix = "warden"

// Store is a Redis-backed store.Store.
type Store struct {
	client red.UniversalClient
	prefix string
}

// Options configures a Store created by New.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New dials Redis with opts.
func New(opts Options) *Store {
	client := red.NewClient(&red.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Prefix)
}

// NewWithClient wraps an existing client. An empty prefix means DefaultPrefix.
func NewWithClient(client red.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) redisKey(key store.Key) string {
	return s.prefix + ":" + string(key.Kind) + ":" + key.Name
}

// InTransaction runs fn with WATCH-based optimistic locking.
func (s *Store) InTransaction(ctx context.Context, fn store.TxFunc) error {
	var fnErr error
	err := s.client.Watch(ctx, func(tx *red.Tx) error {
		txn := store.NewBufferedTxn(func(ctx context.Context, key store.Key) ([]byte, error) {
			k := s.redisKey(key)
			if err := tx.Watch(ctx, k).Err(); err != nil {
				return nil, oops.Code("STORE_READ_FAILED").With("key", key.String()).Wrap(err)
			}
			data, err := tx.Get(ctx, k).Bytes()
			if errors.Is(err, red.Nil) {
				return nil, store.ErrNotFound
			}
			if err != nil {
				return nil, oops.Code("STORE_READ_FAILED").With("key", key.String()).Wrap(err)
			}
			return data, nil
		})

		if err := fn(ctx, txn); err != nil {
			fnErr = err
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe red.Pipeliner) error {
			txn.EachWrite(func(key store.Key, data []byte, deleted bool) {
				if deleted {
					pipe.Del(ctx, s.redisKey(key))
				} else {
					pipe.Set(ctx, s.redisKey(key), data, 0)
				}
			})
			if txn.Len() == 0 {
				// EXEC still validates the watched keys of a read-only transaction.
				pipe.Ping(ctx)
			}
			return nil
		})
		return err
	})

	switch {
	case fnErr != nil:
		return fnErr
	case errors.Is(err, red.TxFailedErr):
		return oops.Code("STORE_CONFLICT").Wrap(store.ErrConflict)
	case err != nil:
		return oops.Code("STORE_TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return oops.Code("STORE_PING_FAILED").Wrap(err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return oops.Code("STORE_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
