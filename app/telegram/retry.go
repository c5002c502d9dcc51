package telegram

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy is a backoff.BackOff with two kinds of waits. A rate-limit
// wait requested by the API is returned once and leaves the attempt budget
// alone. Every other failure spends one attempt and waits a fixed delay.
type retryPolicy struct {
	maxAttempts int
	delay       time.Duration

	attempts   int
	retryAfter time.Duration
}

func newRetryPolicy(maxAttempts int, delay time.Duration) *retryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &retryPolicy{maxAttempts: maxAttempts, delay: delay}
}

func (p *retryPolicy) Reset() {
	p.attempts = 0
	p.retryAfter = 0
}

func (p *retryPolicy) NextBackOff() time.Duration {
	if p.retryAfter > 0 {
		wait := p.retryAfter
		p.retryAfter = 0
		return wait
	}

	p.attempts++
	if p.attempts >= p.maxAttempts {
		return backoff.Stop
	}

	return p.delay
}

// rateLimited records the wait requested by the API for the next backoff.
func (p *retryPolicy) rateLimited(wait time.Duration) {
	p.retryAfter = wait
}
