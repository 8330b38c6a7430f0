package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds a retry loop. Retries counts the attempts after the
// first one. Each pause is drawn uniformly from [MinDelay, MaxDelay].
type RetryConfig struct {
	Retries  int
	MinDelay time.Duration
	MaxDelay time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:  DefaultRetries,
		MinDelay: DefaultRetryMinDelay,
		MaxDelay: DefaultRetryMaxDelay,
	}
}

// JitterBackOff is a backoff.BackOff with a flat random pause.
type JitterBackOff struct {
	Min time.Duration
	Max time.Duration
}

func (b *JitterBackOff) NextBackOff() time.Duration {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + rand.N(b.Max-b.Min+1)
}

func (b *JitterBackOff) Reset() {}

// Permanent marks err as terminal: Retry returns it without another attempt.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry runs fn until it succeeds, returns a Permanent error, the retries run
// out or ctx is done. notify, when set, is called before every pause with the
// error that caused it.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error, notify func(err error, wait time.Duration)) error {
	var b backoff.BackOff = &JitterBackOff{Min: cfg.MinDelay, Max: cfg.MaxDelay}
	b = backoff.WithMaxRetries(b, uint64(max(0, cfg.Retries)))
	b = backoff.WithContext(b, ctx)

	return backoff.RetryNotify(fn, b, notify)
}

// RetryWithResult is Retry for functions that return a value.
func RetryWithResult[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	notify func(err error, wait time.Duration),
) (T, error) {
	var result T
	err := Retry(ctx, cfg, func() error {
		r, err := fn()
		if err != nil {
			return err
		}
		result = r
		return nil
	}, notify)
	return result, err
}
