package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/hupe1980/agenthive/logging"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerOptions configures the circuit breaker of a Guard.
type BreakerOptions struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
}

// GuardOptions configures caller-side call policy.
type GuardOptions struct {
	// Timeout bounds each individual call. Zero disables the per-call deadline.
	Timeout time.Duration
	// RateLimit is the sustained number of calls per second. Zero disables limiting.
	RateLimit float64
	// Burst is the limiter bucket size (defaults to 1).
	Burst int
	// MaxRetries is the number of retries after the first attempt. Zero disables retries.
	MaxRetries int
	// BaseDelay and MaxDelay shape the exponential backoff between retries.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Breaker   BreakerOptions
	Logger    logging.Logger
}

// Guard wraps a Model with a per-call timeout, a rate limiter, a circuit
// breaker and an opt-in retry policy. It satisfies Model itself.
type Guard struct {
	inner   Model
	opts    GuardOptions
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	logger  logging.Logger
}

// NewGuard wraps inner with the configured policy.
func NewGuard(inner Model, optFns ...func(o *GuardOptions)) *Guard {
	opts := GuardOptions{
		Burst:     1,
		BaseDelay: time.Second,
		MaxDelay:  30 * time.Second,
		Breaker: BreakerOptions{
			MaxFailures: defaultBreakerMaxFailures,
			Timeout:     defaultBreakerTimeout,
			Interval:    defaultBreakerInterval,
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	if opts.Breaker.MaxFailures == 0 {
		opts.Breaker.MaxFailures = defaultBreakerMaxFailures
	}
	logger := logging.OrNoOp(opts.Logger)

	g := &Guard{inner: inner, opts: opts, logger: logger}
	if opts.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst)
	}

	info := inner.Info()
	maxFailures := opts.Breaker.MaxFailures
	g.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "model:" + info.Provider + ":" + info.Name,
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    opts.Breaker.Interval,
		Timeout:     opts.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model.breaker.state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation and rejected requests say nothing about endpoint health.
			switch KindOf(err) {
			case KindCanceled, KindInvalidRequest, KindMalformedResponse:
				return true
			}
			return err == nil
		},
	})
	return g
}

// Info implements Model by delegating to the wrapped model.
func (g *Guard) Info() Info { return g.inner.Info() }

// State returns the current circuit breaker state for monitoring.
func (g *Guard) State() gobreaker.State { return g.breaker.State() }

// Generate implements Model.
func (g *Guard) Generate(ctx context.Context, req Request) (string, error) {
	provider := g.inner.Info().Provider
	for attempt := 0; ; attempt++ {
		text, err := g.attempt(ctx, req)
		if err == nil {
			return text, nil
		}
		if attempt >= g.opts.MaxRetries || !IsRetryable(err) {
			return "", err
		}
		delay := g.delay(attempt)
		g.logger.Warn("model.call.retry", "provider", provider, "attempt", attempt+1, "delay", delay, "error", err.Error())
		select {
		case <-ctx.Done():
			return "", FromContext(provider, ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (g *Guard) attempt(ctx context.Context, req Request) (string, error) {
	provider := g.inner.Info().Provider
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", FromContext(provider, ctx.Err())
			}
			return "", &TransportError{Kind: KindRateLimited, Provider: provider, Message: "local rate limit", Cause: err}
		}
	}

	callCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	text, err := g.breaker.Execute(func() (string, error) {
		text, err := g.inner.Generate(callCtx, req)
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", &TransportError{Kind: KindTimeout, Provider: provider, Message: "call timed out", Cause: err}
		}
		return text, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &TransportError{Kind: KindCircuitOpen, Provider: provider, Message: "circuit open", Cause: err}
		}
		return "", Wrap(provider, KindUnknown, err)
	}
	return text, nil
}

// delay calculates the backoff for attempt n (0-indexed) with +/- 50% jitter.
func (g *Guard) delay(attempt int) time.Duration {
	d := math.Min(float64(g.opts.BaseDelay)*math.Pow(2, float64(attempt)), float64(g.opts.MaxDelay))
	d *= 0.5 + rand.Float64() // rand in [0,1) -> [0.5, 1.5)
	return time.Duration(d)
}

var _ Model = (*Guard)(nil)
