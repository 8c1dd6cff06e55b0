package auth

import (
	"sync"
	"time"
)

// LoginRateLimiter counts login attempts per key (the submitted email) in a
// fixed window. The window does not slide: once it expires the count starts
// over, so a burst right around the window boundary can briefly exceed
// maxAttempts across the two windows. Counters live in process memory only
// and are lost on restart.
type LoginRateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*loginAttempts
	maxAttempts int
	window      time.Duration
}

type loginAttempts struct {
	count           int
	windowStartedAt time.Time
}

func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	return &LoginRateLimiter{
		attempts:    make(map[string]*loginAttempts),
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// CheckAndRecord reports whether another attempt for the key is allowed, and
// records it if so. The read-modify-write is done under the lock, concurrent
// calls for the same key never undercount.
func (rl *LoginRateLimiter) CheckAndRecord(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	attempt, ok := rl.attempts[key]
	if !ok {
		rl.attempts[key] = &loginAttempts{count: 1, windowStartedAt: now}
		return true
	}

	if now.Sub(attempt.windowStartedAt) > rl.window {
		attempt.count = 1
		attempt.windowStartedAt = now
		return true
	}

	if attempt.count >= rl.maxAttempts {
		// denied attempts are not counted, the window does not extend
		return false
	}

	attempt.count++
	return true
}
