// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/wardenhq/warden/internal/account"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/pkg/errutil"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// operation runs one account call for a decoded request and returns the
// response payload.
type operation func(ctx context.Context, req *request) (any, error)

// endpoint adapts op into a handler that decodes the body, retries store
// conflicts, writes the response and records metrics.
func (s *Server) endpoint(name string, op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := s.serve(w, r, name, op)
		s.metrics.ObserveRequest(name, status, time.Since(start))
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, name string, op operation) int {
	ctx := r.Context()

	var req request
	if err := decodeJSON(r, &req); err != nil {
		return s.writeError(ctx, w, name, oops.Code(account.CodeInvalidRequest).Wrapf(err, "Malformed request body."))
	}

	var payload any
	attempt := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if attempt > 0 {
			s.metrics.ObserveRetry(name)
		}
		attempt++

		var err error
		payload, err = op(ctx, &req)
		if store.IsConflict(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return s.writeError(ctx, w, name, err)
	}

	writeJSON(w, http.StatusOK, payload)
	return http.StatusOK
}

func (s *Server) backoff() retry.Backoff {
	return retry.WithMaxRetries(s.retries, retry.NewFibonacci(s.retryBase))
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err //nolint:wrapcheck // wrapped by the caller
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// StatusFor maps an error onto its HTTP status class.
func StatusFor(err error) int {
	switch account.KindOf(err) {
	case account.KindValidation:
		return http.StatusBadRequest
	case account.KindAuthentication, account.KindAuthorization, account.KindNotFound:
		return http.StatusForbidden
	case account.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

const (
	internalMessage = "Something broke."
	conflictMessage = "The account was modified concurrently, please retry."
)

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, name string, err error) int {
	status := StatusFor(err)
	body := errorResponse{Error: err.Error(), Code: errutil.Code(err)}
	switch {
	case status == http.StatusInternalServerError:
		errutil.LogError(ctx, s.logger, "request failed", err, "operation", name)
		body = errorResponse{Error: internalMessage}
	case store.IsConflict(err):
		s.logger.WarnContext(ctx, "conflict retries exhausted", "operation", name, "retries", s.retries)
		body = errorResponse{Error: conflictMessage, Code: account.CodeStoreConflict}
	}
	writeJSON(w, status, body)
	return status
}
