// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/wardenhq/warden/internal/store"
)

// TimestampLayout renders creation timestamps as dd-MM-yyyy HH:mm:ss.
const TimestampLayout = "02-01-2006 15:04:05"

// Account is the credential record of a user.
type Account struct {
	Username       string    `json:"username"`
	PasswordDigest string    `json:"password"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"creation_timestamp"`
}

// Profile holds a user's role, state, visibility and contact details.
type Profile struct {
	Username          string     `json:"username"`
	Visibility        Visibility `json:"profile"`
	Role              Role       `json:"role"`
	State             State      `json:"state"`
	Landline          string     `json:"landline"`
	MobilePhone       string     `json:"mobilePhone"`
	Address           string     `json:"address"`
	ComplementAddress string     `json:"complementAddress"`
	Locality          string     `json:"locality"`
}

// DefaultProfile is the profile created alongside a new account.
func DefaultProfile(username string) Profile {
	return Profile{
		Username:   username,
		Visibility: VisibilityPrivate,
		Role:       RoleUser,
		State:      StateEnabled,
	}
}

// lookup loads and decodes the record under key. found is false when absent.
func lookup[T any](ctx context.Context, txn store.Txn, key store.Key) (rec T, found bool, err error) {
	data, err := txn.Get(ctx, key)
	if store.IsNotFound(err) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, oops.With("key", key.String()).Wrap(err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false, oops.Code(CodeCorruptRecord).With("key", key.String()).Wrap(err)
	}
	return rec, true, nil
}

// mustLookup is lookup for records whose absence means the store is inconsistent.
func mustLookup[T any](ctx context.Context, txn store.Txn, key store.Key) (T, error) {
	rec, found, err := lookup[T](ctx, txn, key)
	if err == nil && !found {
		err = oops.Code(CodeCorruptRecord).With("key", key.String()).Errorf("record missing")
	}
	return rec, err
}

func encode(key store.Key, rec any) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, oops.Code(CodeCorruptRecord).With("key", key.String()).Wrap(err)
	}
	return data, nil
}

func insert(ctx context.Context, txn store.Txn, key store.Key, rec any) error {
	data, err := encode(key, rec)
	if err != nil {
		return err
	}
	if err := txn.Add(ctx, key, data); err != nil {
		if errors.Is(err, store.ErrKeyExists) {
			return oops.Code("STORE_KEY_EXISTS").With("key", key.String()).Wrap(err)
		}
		return oops.With("key", key.String()).Wrap(err)
	}
	return nil
}

func replace(ctx context.Context, txn store.Txn, key store.Key, rec any) error {
	data, err := encode(key, rec)
	if err != nil {
		return err
	}
	if err := store.Replace(ctx, txn, key, data); err != nil {
		return oops.With("key", key.String()).Wrap(err)
	}
	return nil
}

func remove(ctx context.Context, txn store.Txn, key store.Key) error {
	if err := txn.Delete(ctx, key); err != nil {
		return oops.With("key", key.String()).Wrap(err)
	}
	return nil
}
