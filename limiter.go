package newsdesk

import (
	"sync"
	"time"
)

// RateLimiter limits events per key (client IP) in a sliding window.
// It guards both console logins and generation requests.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewRateLimiter creates a RateLimiter that allows max events per window.
// Call Stop to end its cleanup goroutine.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *RateLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for key, hits := range l.attempts {
			kept := prune(hits, cutoff)
			if len(kept) == 0 {
				delete(l.attempts, key)
			} else {
				l.attempts[key] = kept
			}
		}
		l.mu.Unlock()
	}
}

// Stop ends the cleanup goroutine. The limiter keeps working.
func (l *RateLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow checks the limit for key and records the event if allowed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := prune(l.attempts[key], time.Now().Add(-l.window))
	if len(kept) >= l.max {
		l.attempts[key] = kept
		return false
	}
	l.attempts[key] = append(kept, time.Now())
	return true
}

// Check returns true if key has not exceeded the limit.
// It does not record an event; call Record separately, e.g. on a
// failed login.
func (l *RateLimiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := prune(l.attempts[key], time.Now().Add(-l.window))
	l.attempts[key] = kept
	return len(kept) < l.max
}

// Record registers an event for key.
func (l *RateLimiter) Record(key string) {
	l.mu.Lock()
	l.attempts[key] = append(l.attempts[key], time.Now())
	l.mu.Unlock()
}
