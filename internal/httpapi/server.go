// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

// Package httpapi exposes the account service as a JSON HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wardenhq/warden/internal/account"
)

// DefaultConflictRetries is how many times a request is retried after its
// transaction lost a store conflict.
const DefaultConflictRetries = 3

// defaultRetryBase is the first fibonacci backoff step between retries.
const defaultRetryBase = 10 * time.Millisecond

// AccountService is the set of account operations the API serves.
type AccountService interface {
	Login(ctx context.Context, username, password string) (account.Token, error)
	Logout(ctx context.Context, presented *account.Token) error
	Register(ctx context.Context, req account.RegisterRequest) (account.Account, error)
	Delete(ctx context.Context, presented *account.Token, target string) error
	ModifyProfile(ctx context.Context, presented *account.Token, upd account.ProfileUpdate) (account.Profile, error)
	ChangeRole(ctx context.Context, presented *account.Token, target, role string) (account.Role, error)
	ChangeState(ctx context.Context, presented *account.Token, target, state string) (account.State, error)
	ChangePassword(ctx context.Context, presented *account.Token, req account.ChangePasswordRequest) error
	ReadAttributes(ctx context.Context, presented *account.Token, target string) (account.Attributes, error)
	Disable(ctx context.Context, presented *account.Token, target string) error
	Ping(ctx context.Context) error
}

// Recorder receives per-request measurements.
type Recorder interface {
	ObserveRequest(operation string, status int, elapsed time.Duration)
	ObserveRetry(operation string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, int, time.Duration) {}
func (nopRecorder) ObserveRetry(string)                       {}

// Options configures a Server.
type Options struct {
	// ConflictRetries bounds retries after STORE_CONFLICT. Zero disables them.
	ConflictRetries uint64
	// RetryBase is the first backoff step. Defaults to 10ms.
	RetryBase time.Duration
	Logger    *slog.Logger
	Metrics   Recorder
}

// Server routes HTTP requests to an AccountService.
type Server struct {
	svc       AccountService
	retries   uint64
	retryBase time.Duration
	logger    *slog.Logger
	metrics   Recorder
}

// NewServer creates a Server for svc.
func NewServer(svc AccountService, opts Options) *Server {
	s := &Server{
		svc:       svc,
		retries:   opts.ConflictRetries,
		retryBase: opts.RetryBase,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	if s.retryBase <= 0 {
		s.retryBase = defaultRetryBase
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	return s
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Route("/rest", func(r chi.Router) {
		r.Route("/sign", func(r chi.Router) {
			r.Post("/in", s.endpoint("login", s.login))
			r.Delete("/out", s.endpoint("logout", s.logout))
		})
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", s.endpoint("register", s.register))
			r.Delete("/delete", s.endpoint("delete", s.deleteUser))
			r.Post("/modify", s.endpoint("modify_profile", s.modifyProfile))
			r.Post("/role", s.endpoint("change_role", s.changeRole))
			r.Post("/state", s.endpoint("change_state", s.changeState))
			r.Post("/newPassword", s.endpoint("change_password", s.changePassword))
			r.Post("/attribute", s.endpoint("read_attributes", s.readAttributes))
			r.Delete("/disable", s.endpoint("disable", s.disable))
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
