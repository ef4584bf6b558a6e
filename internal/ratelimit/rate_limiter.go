// rate_limiter.go - Token bucket in front of the Gemini API

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a simple token bucket. Both extraction backends that talk
// to Gemini share one instance so their combined request rate stays
// under the model's RPM quota.
type Limiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewLimiter creates a limiter holding maxTokens, refilling one token
// every refillRate.
func NewLimiter(maxTokens int, refillRate time.Duration) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens > 0 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// refill credits tokens for elapsed time. Callers must hold l.mu.
func (l *Limiter) refill() {
	now := time.Now()
	added := int(now.Sub(l.lastRefill) / l.refillRate)
	if added <= 0 {
		return
	}
	l.tokens += added
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}
