package processes

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeBucket(rate float64, burst int) (*tokenBucket, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := newTokenBucket(rate, burst)
	b.now = clock.now
	b.lastRefill = clock.now()
	return b, clock
}

func TestTokenBucketReserve(t *testing.T) {
	b, clock := newFakeBucket(10, 2)

	for i := range 2 {
		if d := b.reserve(); d != 0 {
			t.Fatalf("reserve %d: expected burst token, waited %v", i, d)
		}
	}
	if d := b.reserve(); d != 100*time.Millisecond {
		t.Errorf("expected 100ms wait, got %v", d)
	}
	if d := b.reserve(); d != 200*time.Millisecond {
		t.Errorf("expected 200ms wait for the second debt, got %v", d)
	}

	clock.advance(time.Second)
	if d := b.reserve(); d != 0 {
		t.Errorf("expected refilled token, waited %v", d)
	}
	if b.tokens > float64(b.burst) {
		t.Errorf("tokens %v exceed burst %d", b.tokens, b.burst)
	}
}

func TestTokenBucketDefaultBurst(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{0.5, 1},
		{4, 4},
	}
	for _, tt := range tests {
		if got := newTokenBucket(tt.rate, 0).burst; got != tt.want {
			t.Errorf("rate %v: expected burst %d, got %d", tt.rate, tt.want, got)
		}
	}
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	b, _ := newFakeBucket(0.001, 1)
	b.reserve()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.wait(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
