// Package resilience wraps calls to remote services (embedder, completion API) with rate
// limiting, a circuit breaker, and retry with exponential backoff.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hyperjump/tebiki/internal/config"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("service unavailable")

// Policy guards one remote dependency. It is safe for concurrent use.
type Policy struct {
	name           string
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	maxRetries     uint
	initialBackoff time.Duration
	maxBackoff     time.Duration
	retryable      func(error) bool
	logger         *zap.Logger
}

// Option configures a Policy.
type Option func(*Policy)

// WithLogger sets a logger for retries and breaker state changes.
func WithLogger(l *zap.Logger) Option {
	return func(p *Policy) { p.logger = l }
}

// WithRetryable sets the classifier for errors worth retrying. By default every error
// except context cancellation is retried.
func WithRetryable(fn func(error) bool) Option {
	return func(p *Policy) { p.retryable = fn }
}

// New creates a policy named name (used in logs and errors) from cfg.
func New(name string, cfg config.ResilienceConfig, opts ...Option) *Policy {
	p := &Policy{
		name:           name,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		retryable:      defaultRetryable,
	}
	for _, opt := range opts {
		opt(p)
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	p.limiter = rate.NewLimiter(limit, burst)

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if p.logger != nil {
				p.logger.Warn("circuit breaker state change",
					zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			}
		},
	})
	return p
}

func defaultRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Name returns the policy name.
func (p *Policy) Name() string {
	return p.name
}

// State returns the breaker state ("closed", "half-open", "open").
func (p *Policy) State() string {
	return p.breaker.State().String()
}

// Do runs fn under the policy. See Call.
func (p *Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	_, err := Call(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call runs fn under p: each attempt waits for the rate limiter and goes through the
// circuit breaker. Retryable failures are retried with exponential backoff up to
// MaxRetries times; the last error is returned. An open breaker fails fast with
// ErrUnavailable.
func Call[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	b := backoff.NewExponentialBackOff()
	if p.initialBackoff > 0 {
		b.InitialInterval = p.initialBackoff
	}
	if p.maxBackoff > 0 {
		b.MaxInterval = p.maxBackoff
	}
	attempt := 0
	op := func() (T, error) {
		attempt++
		if err := p.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}
		res, err := p.breaker.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return zero, backoff.Permanent(fmt.Errorf("%w: %s: %v", ErrUnavailable, p.name, err))
			}
			if !p.retryable(err) {
				return zero, backoff.Permanent(err)
			}
			return zero, err
		}
		v, _ := res.(T)
		return v, nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.maxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			if p.logger != nil {
				p.logger.Debug("retrying remote call",
					zap.String("policy", p.name), zap.Int("attempt", attempt), zap.Duration("backoff", next), zap.Error(err))
			}
		}),
	)
}
