// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package storetest holds the behavioural contract every store backend must
// satisfy, expressed as Ginkgo specs.
package storetest

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/wardenhq/warden/internal/store"
)

// Factory returns a fresh, empty store and a cleanup func.
type Factory func() (store.Store, func())

// DescribeContract registers the contract specs against stores built by newStore.
// Call it from inside a Describe container.
func DescribeContract(newStore Factory) {
	var (
		ctx     context.Context
		st      store.Store
		cleanup func()
	)

	BeforeEach(func() {
		ctx = context.Background()
		st, cleanup = newStore()
	})

	AfterEach(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	get := func(key store.Key) ([]byte, error) {
		var data []byte
		err := st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
			var getErr error
			data, getErr = txn.Get(ctx, key)
			return getErr
		})
		return data, err
	}

	put := func(key store.Key, record string) {
		Expect(st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
			return txn.Add(ctx, key, []byte(record))
		})).To(Succeed())
	}

	Describe("Get", func() {
		It("returns ErrNotFound for an absent key", func() {
			_, err := get(store.UserKey("nobody"))
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("returns committed records", func() {
			put(store.UserKey("alice"), `{"email":"a@example.com"}`)

			data, err := get(store.UserKey("alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"email":"a@example.com"}`))
		})

		It("keeps kinds apart", func() {
			put(store.UserKey("alice"), `{"kind":"user"}`)

			_, err := get(store.ProfileKey("alice"))
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("Add", func() {
		It("rejects a key that already holds a record", func() {
			put(store.UserKey("alice"), `{}`)

			err := st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				return txn.Add(ctx, store.UserKey("alice"), []byte(`{"second":true}`))
			})
			Expect(err).To(MatchError(store.ErrKeyExists))

			data, err := get(store.UserKey("alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{}`))
		})

		It("is visible to later reads in the same transaction", func() {
			err := st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				if err := txn.Add(ctx, store.TokenKey("alice"), []byte(`{"id":"t1"}`)); err != nil {
					return err
				}
				data, err := txn.Get(ctx, store.TokenKey("alice"))
				if err != nil {
					return err
				}
				Expect(data).To(MatchJSON(`{"id":"t1"}`))
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("is a no-op for an absent key", func() {
			Expect(st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				return txn.Delete(ctx, store.TokenKey("ghost"))
			})).To(Succeed())
		})

		It("removes committed records", func() {
			put(store.TokenKey("alice"), `{}`)

			Expect(st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				return txn.Delete(ctx, store.TokenKey("alice"))
			})).To(Succeed())

			_, err := get(store.TokenKey("alice"))
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("Replace", func() {
		It("swaps the record in place", func() {
			put(store.ProfileKey("alice"), `{"role":"USER"}`)

			Expect(st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				return store.Replace(ctx, txn, store.ProfileKey("alice"), []byte(`{"role":"BACKOFFICE"}`))
			})).To(Succeed())

			data, err := get(store.ProfileKey("alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"role":"BACKOFFICE"}`))
		})
	})

	Describe("InTransaction", func() {
		It("commits every write together", func() {
			Expect(st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				if err := txn.Add(ctx, store.UserKey("bob"), []byte(`{"u":1}`)); err != nil {
					return err
				}
				return txn.Add(ctx, store.ProfileKey("bob"), []byte(`{"p":1}`))
			})).To(Succeed())

			_, err := get(store.UserKey("bob"))
			Expect(err).NotTo(HaveOccurred())
			_, err = get(store.ProfileKey("bob"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rolls back every write when fn fails", func() {
			put(store.ProfileKey("carol"), `{"state":"ENABLED"}`)
			boom := errors.New("boom")

			err := st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				if err := txn.Add(ctx, store.UserKey("carol"), []byte(`{}`)); err != nil {
					return err
				}
				if err := store.Replace(ctx, txn, store.ProfileKey("carol"), []byte(`{"state":"DISABLED"}`)); err != nil {
					return err
				}
				return boom
			})
			Expect(err).To(BeIdenticalTo(boom))

			_, err = get(store.UserKey("carol"))
			Expect(err).To(MatchError(store.ErrNotFound))
			data, err := get(store.ProfileKey("carol"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"state":"ENABLED"}`))
		})

		It("fails with ErrConflict when a read key changes before commit", func() {
			put(store.ProfileKey("dave"), `{"v":1}`)

			err := st.InTransaction(ctx, func(ctx context.Context, txn store.Txn) error {
				if _, err := txn.Get(ctx, store.ProfileKey("dave")); err != nil {
					return err
				}

				// A concurrent writer commits first.
				Expect(st.InTransaction(ctx, func(ctx context.Context, other store.Txn) error {
					return store.Replace(ctx, other, store.ProfileKey("dave"), []byte(`{"v":2}`))
				})).To(Succeed())

				return store.Replace(ctx, txn, store.ProfileKey("dave"), []byte(`{"v":3}`))
			})
			Expect(errors.Is(err, store.ErrConflict)).To(BeTrue(), "expected conflict, got %v", err)

			data, err := get(store.ProfileKey("dave"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"v":2}`))
		})
	})

	Describe("Ping", func() {
		It("succeeds on an open store", func() {
			Expect(st.Ping(ctx)).To(Succeed())
		})
	})
}
