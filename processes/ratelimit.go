package processes

import (
	"context"
	"sync"
	"time"
)

// tokenBucket is a token bucket limiter: rate tokens per second, holding
// at most burst.
type tokenBucket struct {
	rate  float64
	burst int
	now   func() time.Time

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	if burst <= 0 {
		burst = max(1, int(rate))
	}
	b := &tokenBucket{rate: rate, burst: burst, now: time.Now}
	b.tokens = float64(burst)
	b.lastRefill = b.now()
	return b
}

func (b *tokenBucket) refill() {
	now := b.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.rate
	b.lastRefill = now
	if b.tokens > float64(b.burst) {
		b.tokens = float64(b.burst)
	}
}

// reserve takes one token and returns how long the caller must wait for
// it to become available.
func (b *tokenBucket) reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	b.tokens--
	if b.tokens >= 0 {
		return 0
	}
	return time.Duration(-b.tokens / b.rate * float64(time.Second))
}

// wait blocks until a token is available or ctx is done.
func (b *tokenBucket) wait(ctx context.Context) error {
	d := b.reserve()
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
