package newsdesk

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewRateLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewRateLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestRateLimiterIsPerIP(t *testing.T) {
	limiter := NewRateLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestRateLimiterCheckDoesNotRecord(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.40"

	for i := 0; i < 3; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("Check %d blocked before any Record", i)
		}
	}
	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected Check to block after Record")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	limiter.Stop()
	limiter.Stop()
	if !limiter.Allow("203.0.113.50") {
		t.Fatalf("limiter should keep working after Stop")
	}
}
