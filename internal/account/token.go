// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"encoding/json"
	"time"
)

// DefaultTokenTTL is the lifetime of a freshly minted session token.
const DefaultTokenTTL = 2 * time.Hour

// Token is a session token. The role is a snapshot taken when the token was
// issued, refreshed only by a role change on its owner.
type Token struct {
	Username  string
	ID        string
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token has passed its expiration at now.
func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// tokenWire is the JSON shape of a token, with epoch-millisecond instants.
type tokenWire struct {
	Username       string `json:"username"`
	TokenID        string `json:"tokenID"`
	Role           Role   `json:"role"`
	CreationData   int64  `json:"creationData"`
	ExpirationData int64  `json:"expirationData"`
}

// MarshalJSON encodes the token in its wire shape.
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenWire{
		Username:       t.Username,
		TokenID:        t.ID,
		Role:           t.Role,
		CreationData:   t.CreatedAt.UnixMilli(),
		ExpirationData: t.ExpiresAt.UnixMilli(),
	})
}

// UnmarshalJSON decodes the wire shape.
func (t *Token) UnmarshalJSON(data []byte) error {
	var w tokenWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err //nolint:wrapcheck // json.Unmarshaler contract
	}
	*t = Token{
		Username:  w.Username,
		ID:        w.TokenID,
		Role:      w.Role,
		CreatedAt: time.UnixMilli(w.CreationData).UTC(),
		ExpiresAt: time.UnixMilli(w.ExpirationData).UTC(),
	}
	return nil
}

// Caller is an authenticated principal.
type Caller struct {
	Username string
	Role     Role
}

// Authorize checks a presented token against the stored record for its
// username. stored is nil when no record exists. Identity and role come from
// the stored record; only its identifier is compared with the presented one.
func Authorize(presented, stored *Token, now time.Time) (Caller, error) {
	if presented == nil || stored == nil {
		return Caller{}, errNotAuthenticated()
	}
	if presented.ID == "" || presented.ID != stored.ID || presented.Username != stored.Username {
		return Caller{}, errNotAuthenticated()
	}
	if stored.Expired(now) {
		return Caller{}, errNotAuthenticated()
	}
	return Caller{Username: stored.Username, Role: stored.Role}, nil
}
