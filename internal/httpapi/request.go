// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package httpapi

import (
	"github.com/wardenhq/warden/internal/account"
)

// request is the body shared by every endpoint. Each endpoint reads only the
// fields it needs.
type request struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	State        string `json:"state"`
	OldPassword  string `json:"oldPassword"`

	Profile           *string `json:"profile"`
	Landline          *string `json:"landline"`
	MobilePhone       *string `json:"mobilePhone"`
	Address           *string `json:"address"`
	ComplementAddress *string `json:"complementAddress"`
	Locality          *string `json:"locality"`

	At *account.Token `json:"at"`
}

func (r *request) profileUpdate() account.ProfileUpdate {
	return account.ProfileUpdate{
		Visibility:        r.Profile,
		Landline:          r.Landline,
		MobilePhone:       r.MobilePhone,
		Address:           r.Address,
		ComplementAddress: r.ComplementAddress,
		Locality:          r.Locality,
	}
}

// messageResponse carries a human readable outcome.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type userView struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	CreationTimestamp string `json:"creation_timestamp"`
}

// attributesResponse is a read-attributes result.
type attributesResponse struct {
	User    userView        `json:"user"`
	Profile account.Profile `json:"profile"`
}
