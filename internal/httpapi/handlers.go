// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package httpapi

import (
	"context"
	"fmt"

	"github.com/wardenhq/warden/internal/account"
)

func message(format string, args ...any) messageResponse {
	return messageResponse{Message: fmt.Sprintf(format, args...)}
}

func (s *Server) login(ctx context.Context, req *request) (any, error) {
	tok, err := s.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func (s *Server) logout(ctx context.Context, req *request) (any, error) {
	if err := s.svc.Logout(ctx, req.At); err != nil {
		return nil, err
	}
	return message("User %s logged out successfully.", req.At.Username), nil
}

func (s *Server) register(ctx context.Context, req *request) (any, error) {
	acct, err := s.svc.Register(ctx, account.RegisterRequest{
		Username:     req.Username,
		Password:     req.Password,
		Confirmation: req.Confirmation,
		Email:        req.Email,
	})
	if err != nil {
		return nil, err
	}
	return message("New user registered with username %s.", acct.Username), nil
}

func (s *Server) deleteUser(ctx context.Context, req *request) (any, error) {
	if err := s.svc.Delete(ctx, req.At, req.Username); err != nil {
		return nil, err
	}
	return message("User with username %s removed.", req.Username), nil
}

func (s *Server) modifyProfile(ctx context.Context, req *request) (any, error) {
	profile, err := s.svc.ModifyProfile(ctx, req.At, req.profileUpdate())
	if err != nil {
		return nil, err
	}
	return message("%s info updated.", profile.Username), nil
}

func (s *Server) changeRole(ctx context.Context, req *request) (any, error) {
	role, err := s.svc.ChangeRole(ctx, req.At, req.Username, req.Role)
	if err != nil {
		return nil, err
	}
	return message("%s role updated to role %s.", req.Username, role), nil
}

func (s *Server) changeState(ctx context.Context, req *request) (any, error) {
	if _, err := s.svc.ChangeState(ctx, req.At, req.Username, req.State); err != nil {
		return nil, err
	}
	return message("%s state updated.", req.Username), nil
}

func (s *Server) changePassword(ctx context.Context, req *request) (any, error) {
	err := s.svc.ChangePassword(ctx, req.At, account.ChangePasswordRequest{
		OldPassword:  req.OldPassword,
		NewPassword:  req.Password,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		return nil, err
	}
	return message("%s password updated.", req.At.Username), nil
}

func (s *Server) readAttributes(ctx context.Context, req *request) (any, error) {
	attrs, err := s.svc.ReadAttributes(ctx, req.At, req.Username)
	if err != nil {
		return nil, err
	}
	return attributesResponse{
		User: userView{
			Username:          attrs.Username,
			Email:             attrs.Email,
			CreationTimestamp: attrs.Created,
		},
		Profile: attrs.Profile,
	}, nil
}

func (s *Server) disable(ctx context.Context, req *request) (any, error) {
	if err := s.svc.Disable(ctx, req.At, req.Username); err != nil {
		return nil, err
	}
	return message("%s disabled.", req.Username), nil
}
