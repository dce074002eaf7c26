package client

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy controls the delay schedule between retries. The schedule is
// exponential: each delay multiplies the previous one, with randomization
// jitter, capped at MaxInterval. The documentation does not pin down the
// exact formula, so the policy is configurable rather than hardcoded.
type RetryPolicy struct {
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration

	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration

	// Multiplier scales the delay after each retry.
	Multiplier float64

	// RandomizationFactor spreads each delay by ±factor to avoid
	// synchronized retries.
	RandomizationFactor float64
}

// DefaultRetryPolicy returns the default schedule: 1s initial delay,
// doubling per attempt, capped at 30s, with ±25% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval:     1 * time.Second,
		MaxInterval:         30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.25,
	}
}

func (p RetryPolicy) validate() error {
	if p.InitialInterval <= 0 {
		return fmt.Errorf("retry initial interval must be positive, got %s", p.InitialInterval)
	}
	if p.MaxInterval < p.InitialInterval {
		return fmt.Errorf("retry max interval %s is below the initial interval %s", p.MaxInterval, p.InitialInterval)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("retry multiplier must be at least 1, got %g", p.Multiplier)
	}
	if p.RandomizationFactor < 0 || p.RandomizationFactor > 1 {
		return fmt.Errorf("retry randomization factor must be in [0, 1], got %g", p.RandomizationFactor)
	}
	return nil
}

// newBackOff builds the delay generator for one request's retry sequence.
func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		MaxInterval:         p.MaxInterval,
		Multiplier:          p.Multiplier,
		RandomizationFactor: p.RandomizationFactor,
	}
	bo.Reset()
	return bo
}
