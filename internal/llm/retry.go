package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryProvider retries transient errors with exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    *zap.Logger
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig, log *zap.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RetryProvider{inner: p, config: cfg, log: log.Named("llm.retry")}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidRetried := false

	for attempt := range r.config.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.shouldRetry(err, &invalidRetried) || attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.log.Debug("retrying llm call", zap.Int("attempt", attempt+1), zap.Duration("wait", wait), zap.Error(err))
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryProvider) shouldRetry(err error, invalidRetried *bool) bool {
	if IsContextDone(err) {
		return false
	}

	// Truncation is a configuration issue, not transient.
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return false
	}

	// A malformed answer gets exactly one more try.
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	// Rate limits, outages and network errors are transient.
	return true
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// TimeoutProvider bounds every call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider so no call outlives d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
