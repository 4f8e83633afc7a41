// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/pkg/errutil"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

const tracerName = "github.com/wardenhq/warden/internal/account"

// Service runs account and session operations against a store.
type Service struct {
	store  store.Store
	hasher PasswordHasher
	now    func() time.Time
	newID  func() string
	ttl    time.Duration
	logger *slog.Logger
	tracer trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithHasher sets the password hasher. The default is SHA512Hasher.
func WithHasher(h PasswordHasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets the token identifier source. The default is a ULID.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithTokenTTL sets the session token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracer sets the tracer. The default is the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService creates a Service over st.
func NewService(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, oops.Code(CodeInvalidRequest).Errorf("store is required")
	}
	s := &Service{
		store:  st,
		hasher: NewSHA512Hasher(),
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
		ttl:    DefaultTokenTTL,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		return nil, oops.Code(CodeInvalidRequest).Errorf("password hasher is required")
	}
	if s.ttl <= 0 {
		return nil, oops.Code(CodeInvalidRequest).With("ttl", s.ttl.String()).Errorf("token TTL must be positive")
	}
	return s, nil
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx) //nolint:wrapcheck // store errors are already coded
}

// clock returns the current instant truncated to the millisecond precision
// tokens are stored with.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// run executes fn as one transaction inside a span and logs the outcome.
func (s *Service) run(ctx context.Context, op, actor, target string, fn store.TxFunc) error {
	ctx, span := s.tracer.Start(ctx, "account."+op, trace.WithAttributes(
		attribute.String("account.operation", op),
		attribute.String("account.actor", actor),
		attribute.String("account.target", target),
	))
	defer span.End()

	err := s.store.InTransaction(ctx, fn)
	if err != nil {
		wrapped := oops.With("operation", op).Wrap(err)
		code := errutil.Code(wrapped)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		if KindOf(err) == KindInternal {
			errutil.LogError(ctx, s.logger, "account operation failed", wrapped, "operation", op, "actor", actor, "target", target)
		} else {
			s.logger.DebugContext(ctx, "account operation rejected",
				"operation", op, "actor", actor, "target", target, "code", code)
		}
		return wrapped
	}

	s.logger.InfoContext(ctx, "account operation succeeded", "operation", op, "actor", actor, "target", target)
	return nil
}

// authenticate resolves the caller from a presented token inside txn.
func (s *Service) authenticate(ctx context.Context, txn store.Txn, presented *Token) (Caller, error) {
	if presented == nil || presented.Username == "" {
		return Caller{}, errNotAuthenticated()
	}
	stored, found, err := lookup[Token](ctx, txn, store.TokenKey(presented.Username))
	if err != nil {
		return Caller{}, err
	}
	if !found {
		return Authorize(presented, nil, s.clock())
	}
	return Authorize(presented, &stored, s.clock())
}

// requireAccount loads the account for username or fails with ACCOUNT_NOT_FOUND.
func requireAccount(ctx context.Context, txn store.Txn, username string) (Account, error) {
	acct, found, err := lookup[Account](ctx, txn, store.UserKey(username))
	if err != nil {
		return Account{}, err
	}
	if !found {
		return Account{}, errNotFound(username)
	}
	return acct, nil
}

func tokenOwner(t *Token) string {
	if t == nil {
		return ""
	}
	return t.Username
}
