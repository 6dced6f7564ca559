package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/thomas-vilte/matereview/internal/logger"
)

// RetryState is the state of a Retrier run.
type RetryState int

const (
	StateAttempting RetryState = iota
	StateWaiting
	StateSucceeded
	StateExhausted
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateWaiting:
		return "waiting"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = 2 * time.Second
)

// RetryEvent describes a failed attempt. Delay is zero on the final attempt
// because nothing is left to wait for.
type RetryEvent struct {
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Err         error
	Final       bool
}

// RetryOutcome reports the terminal state and how many attempts ran.
type RetryOutcome struct {
	State    RetryState
	Attempts int
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Operation is one attempt. Wrap an error with backoff.Permanent to stop
// retrying immediately.
type Operation func(ctx context.Context, attempt int) error

// Retrier runs an operation through attempting and waiting states until it
// ends succeeded, exhausted or failed. Failed covers permanent errors and
// cancellation. The delay after failed attempt k is initial*2^(k-1).
type Retrier struct {
	maxAttempts    int
	initialBackoff time.Duration
	sleep          SleepFunc
}

type RetryOption func(*Retrier)

func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithInitialBackoff(d time.Duration) RetryOption {
	return func(r *Retrier) {
		if d > 0 {
			r.initialBackoff = d
		}
	}
}

// WithSleep replaces the wait between attempts, mainly for tests.
func WithSleep(fn SleepFunc) RetryOption {
	return func(r *Retrier) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

func NewRetrier(opts ...RetryOption) *Retrier {
	r := &Retrier{
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: DefaultInitialBackoff,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

func (r *Retrier) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = r.initialBackoff << uint(r.maxAttempts)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do runs op until it succeeds, returns a permanent error, or maxAttempts
// have failed. notify, when not nil, is called for every failed attempt
// before any wait. The returned error is the last failure.
func (r *Retrier) Do(ctx context.Context, op Operation, notify func(RetryEvent)) (RetryOutcome, error) {
	log := logger.FromContext(ctx)
	b := r.newBackOff()

	state := StateAttempting
	attempt := 0
	var lastErr error
	var pending time.Duration

	for {
		switch state {
		case StateAttempting:
			attempt++
			lastErr = op(ctx, attempt)
			if lastErr == nil {
				state = StateSucceeded
				continue
			}

			var permanent *backoff.PermanentError
			if errors.As(lastErr, &permanent) {
				return RetryOutcome{State: StateFailed, Attempts: attempt}, permanent.Unwrap()
			}

			final := attempt >= r.maxAttempts
			if !final {
				pending = b.NextBackOff()
			} else {
				pending = 0
			}

			event := RetryEvent{
				Attempt:     attempt,
				MaxAttempts: r.maxAttempts,
				Delay:       pending,
				Err:         lastErr,
				Final:       final,
			}
			log.Warn("completion attempt failed",
				"attempt", attempt,
				"max_attempts", r.maxAttempts,
				"delay", pending,
				"error", lastErr)
			if notify != nil {
				notify(event)
			}

			if final {
				state = StateExhausted
			} else {
				state = StateWaiting
			}

		case StateWaiting:
			if err := r.sleep(ctx, pending); err != nil {
				return RetryOutcome{State: StateFailed, Attempts: attempt}, err
			}
			state = StateAttempting

		case StateSucceeded:
			return RetryOutcome{State: StateSucceeded, Attempts: attempt}, nil

		case StateExhausted:
			return RetryOutcome{State: StateExhausted, Attempts: attempt}, lastErr
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
