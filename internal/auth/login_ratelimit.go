package auth

import (
	"sync"
	"time"
)

// LoginRateLimiter implements fail2ban-style rate limiting for login
// attempts. It tracks failed attempts by IP and username, applying
// exponential backoff.
type LoginRateLimiter struct {
	mu       sync.RWMutex
	attempts map[string]*attemptRecord

	maxAttempts   int
	windowSeconds int
	baseBackoff   time.Duration
	maxBackoff    time.Duration
}

type attemptRecord struct {
	failures  int
	lastFail  time.Time
	blockedAt time.Time
}

// NewLoginRateLimiter creates a new rate limiter.
// maxAttempts: number of failures before blocking
// windowSeconds: time window to count failures
// baseBackoff: initial backoff duration after block
// maxBackoff: maximum backoff duration
func NewLoginRateLimiter(maxAttempts, windowSeconds int, baseBackoff, maxBackoff time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		attempts:      make(map[string]*attemptRecord),
		maxAttempts:   maxAttempts,
		windowSeconds: windowSeconds,
		baseBackoff:   baseBackoff,
		maxBackoff:    maxBackoff,
	}
	go rl.cleanup()
	return rl
}

func (rl *LoginRateLimiter) key(ip, username string) string {
	return ip + ":" + username
}

// IsBlocked checks if an IP+username combination is currently blocked
// and, when blocked, how long until the block lifts.
func (rl *LoginRateLimiter) IsBlocked(ip, username string) (bool, time.Duration) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	rec, exists := rl.attempts[rl.key(ip, username)]
	if !exists || rec.blockedAt.IsZero() {
		return false, 0
	}

	unblockTime := rec.blockedAt.Add(rl.calculateBackoff(rec.failures))
	if time.Now().After(unblockTime) {
		return false, 0
	}

	return true, time.Until(unblockTime)
}

// RecordFailure records a failed login attempt.
func (rl *LoginRateLimiter) RecordFailure(ip, username string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	k := rl.key(ip, username)
	now := time.Now()

	rec, exists := rl.attempts[k]
	if !exists {
		rl.attempts[k] = &attemptRecord{failures: 1, lastFail: now}
		return
	}

	// Reset the counter when the last failure fell outside the window.
	if now.Sub(rec.lastFail) > time.Duration(rl.windowSeconds)*time.Second {
		rec.failures = 0
		rec.blockedAt = time.Time{}
	}

	rec.failures++
	rec.lastFail = now
	if rec.failures >= rl.maxAttempts {
		rec.blockedAt = now
	}
}

// RecordSuccess clears the failure history after a successful login.
func (rl *LoginRateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, rl.key(ip, username))
}

func (rl *LoginRateLimiter) calculateBackoff(failures int) time.Duration {
	over := failures - rl.maxAttempts
	if over < 0 {
		over = 0
	}
	backoff := rl.baseBackoff
	for i := 0; i < over; i++ {
		backoff *= 2
		if backoff >= rl.maxBackoff {
			return rl.maxBackoff
		}
	}
	if backoff > rl.maxBackoff {
		return rl.maxBackoff
	}
	return backoff
}

// cleanup periodically drops stale records.
func (rl *LoginRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-time.Duration(rl.windowSeconds) * time.Second).Add(-rl.maxBackoff)
		rl.mu.Lock()
		for k, rec := range rl.attempts {
			if rec.lastFail.Before(cutoff) {
				delete(rl.attempts, k)
			}
		}
		rl.mu.Unlock()
	}
}
