// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package postgres implements the entity store on PostgreSQL.
//
// All records live in one entities table keyed by (kind, name). Transactions
// run at SERIALIZABLE isolation so two transactions that read and then write
// the same keys cannot both commit; the loser surfaces as store.ErrConflict.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
)

const (
	selectSQL = `SELECT data FROM entities WHERE kind = $1 AND name = $2`
	insertSQL = `INSERT INTO entities (kind, name, data) VALUES ($1, $2, $3) ON CONFLICT (kind, name) DO NOTHING`
	deleteSQL = `DELETE FROM entities WHERE kind = $1 AND name = $2`
)

var txOptions = pgx.TxOptions{IsoLevel: pgx.Serializable}

// poolIface is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type poolIface interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool poolIface
}

// New connects a pool to dsn and returns a Store using it.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool poolIface) *Store {
	return &Store{pool: pool}
}

// InTransaction runs fn inside a serializable transaction.
func (s *Store) InTransaction(ctx context.Context, fn store.TxFunc) error {
	tx, err := s.pool.BeginTx(ctx, txOptions)
	if err != nil {
		return oops.Code("STORE_TX_BEGIN_FAILED").Wrap(err)
	}

	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(ctx) //nolint:errcheck // fn's error or panic takes precedence
		}
	}()

	if err := fn(ctx, &txn{tx: tx}); err != nil {
		return err
	}

	finished = true
	if err := tx.Commit(ctx); err != nil {
		return classify(err, "STORE_TX_COMMIT_FAILED")
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return oops.Code("STORE_PING_FAILED").Wrap(err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type txn struct {
	tx pgx.Tx
}

func (t *txn) Get(ctx context.Context, key store.Key) ([]byte, error) {
	var data []byte
	err := t.tx.QueryRow(ctx, selectSQL, string(key.Kind), key.Name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, oops.With("key", key.String()).Wrap(classify(err, "STORE_READ_FAILED"))
	}
	return data, nil
}

func (t *txn) Add(ctx context.Context, key store.Key, record []byte) error {
	tag, err := t.tx.Exec(ctx, insertSQL, string(key.Kind), key.Name, record)
	if err != nil {
		return oops.With("key", key.String()).Wrap(classify(err, "STORE_WRITE_FAILED"))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrKeyExists
	}
	return nil
}

func (t *txn) Delete(ctx context.Context, key store.Key) error {
	if _, err := t.tx.Exec(ctx, deleteSQL, string(key.Kind), key.Name); err != nil {
		return oops.With("key", key.String()).Wrap(classify(err, "STORE_WRITE_FAILED"))
	}
	return nil
}

// classify maps serialization races onto store.ErrConflict and tags every
// other driver error with code.
func classify(err error, code string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.UniqueViolation:
			return oops.Code("STORE_CONFLICT").
				With("sqlstate", pgErr.Code).
				With("detail", pgErr.Message).
				Wrap(store.ErrConflict)
		}
		return oops.Code(code).With("sqlstate", pgErr.Code).Wrap(err)
	}
	return oops.Code(code).Wrap(err)
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Txn   = (*txn)(nil)
	_ poolIface   = (*pgxpool.Pool)(nil)
)
