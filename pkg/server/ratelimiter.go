package server

import (
	"sync"
	"time"
)

const rateLimitWindow = time.Minute

// RateLimiter implements per-IP rate limiting with a sliding window
type RateLimiter struct {
	mu           sync.Mutex
	requests     map[string][]time.Time
	maxPerWindow int
	stopCleanup  chan struct{}
	stopOnce     sync.Once
}

// NewRateLimiter creates a rate limiter allowing maxPerMinute requests
// per client IP
func NewRateLimiter(maxPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		requests:     make(map[string][]time.Time),
		maxPerWindow: maxPerMinute,
		stopCleanup:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// CheckLimit reports whether a request from the given IP is allowed and
// records it if so
func (rl *RateLimiter) CheckLimit(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rateLimitWindow)

	valid := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.maxPerWindow {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

// GetRetryAfter returns the number of seconds until the oldest request in
// the window expires
func (rl *RateLimiter) GetRetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.requests[ip]
	if len(times) == 0 {
		return 0
	}

	remaining := rateLimitWindow - time.Since(times[0])
	if remaining <= 0 {
		return 0
	}

	// Round up to whole seconds
	return int((remaining + time.Second - 1) / time.Second)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rateLimitWindow)

	for ip, times := range rl.requests {
		valid := times[:0]
		for _, t := range times {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 {
			delete(rl.requests, ip)
		} else {
			rl.requests[ip] = valid
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
