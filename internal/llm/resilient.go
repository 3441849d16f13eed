package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// RetryConfig bounds the exponential backoff applied to failed calls.
type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
	// Timeout caps a single attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     4,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxElapsed:      time.Minute,
	}
}

// Resilient retries failed calls with bounded exponential backoff and
// throttles attempts through a shared rate limiter.
type Resilient struct {
	next    Model
	retry   RetryConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ResilientOption configures a Resilient model.
type ResilientOption func(*Resilient)

// WithRetry overrides the retry policy.
func WithRetry(cfg RetryConfig) ResilientOption {
	return func(r *Resilient) { r.retry = cfg }
}

// WithRateLimit allows rps attempts per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ResilientOption {
	return func(r *Resilient) {
		if rps <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for retry notifications.
func WithLogger(logger *slog.Logger) ResilientOption {
	return func(r *Resilient) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResilient wraps next with retries and rate limiting.
func NewResilient(next Model, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		next:   next,
		retry:  DefaultRetryConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.retry.MaxAttempts == 0 {
		r.retry.MaxAttempts = 1
	}
	return r
}

// Invoke calls the wrapped model until it succeeds, the attempts or the
// elapsed budget run out, or ctx is done.
func (r *Resilient) Invoke(ctx context.Context, req Request) ([]ToolCall, error) {
	b := backoff.NewExponentialBackOff()
	if r.retry.InitialInterval > 0 {
		b.InitialInterval = r.retry.InitialInterval
	}
	if r.retry.MaxInterval > 0 {
		b.MaxInterval = r.retry.MaxInterval
	}

	attempt := 0
	operation := func() ([]ToolCall, error) {
		attempt++
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}
		attemptCtx := ctx
		if r.retry.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.retry.Timeout)
			defer cancel()
		}
		calls, err := r.next.Invoke(attemptCtx, req)
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return calls, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.retry.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			retriesTotal.WithLabelValues(req.Stage).Inc()
			r.logger.Warn("llm call failed, retrying",
				"stage", req.Stage,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		}),
	}
	if r.retry.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(r.retry.MaxElapsed))
	}

	calls, err := backoff.Retry(ctx, operation, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: stage %s after %d attempts: %w", ErrUnavailable, req.Stage, attempt, err)
	}
	return calls, nil
}
