package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksAfterMaxAttempts(t *testing.T) {
	rl := NewLoginRateLimiter(3, 60, time.Minute, 10*time.Minute)

	for i := 0; i < 2; i++ {
		rl.RecordFailure("10.0.0.1", "jdoe")
		blocked, _ := rl.IsBlocked("10.0.0.1", "jdoe")
		assert.False(t, blocked, "attempt %d should not block", i+1)
	}

	rl.RecordFailure("10.0.0.1", "jdoe")
	blocked, retry := rl.IsBlocked("10.0.0.1", "jdoe")
	assert.True(t, blocked)
	assert.Greater(t, retry, time.Duration(0))
}

func TestRateLimiterKeysByIPAndUsername(t *testing.T) {
	rl := NewLoginRateLimiter(2, 60, time.Minute, 10*time.Minute)

	rl.RecordFailure("10.0.0.1", "jdoe")
	rl.RecordFailure("10.0.0.1", "jdoe")

	blocked, _ := rl.IsBlocked("10.0.0.1", "jdoe")
	assert.True(t, blocked)

	// Different IP or different username stays clean.
	blocked, _ = rl.IsBlocked("10.0.0.2", "jdoe")
	assert.False(t, blocked)
	blocked, _ = rl.IsBlocked("10.0.0.1", "other")
	assert.False(t, blocked)
}

func TestRateLimiterSuccessClearsHistory(t *testing.T) {
	rl := NewLoginRateLimiter(2, 60, time.Minute, 10*time.Minute)

	rl.RecordFailure("10.0.0.1", "jdoe")
	rl.RecordFailure("10.0.0.1", "jdoe")
	rl.RecordSuccess("10.0.0.1", "jdoe")

	blocked, _ := rl.IsBlocked("10.0.0.1", "jdoe")
	assert.False(t, blocked)
}

func TestRateLimiterBackoffCapped(t *testing.T) {
	rl := NewLoginRateLimiter(1, 60, time.Minute, 2*time.Minute)

	assert.Equal(t, time.Minute, rl.calculateBackoff(1))
	assert.Equal(t, 2*time.Minute, rl.calculateBackoff(2))
	// Further failures never exceed the cap.
	assert.Equal(t, 2*time.Minute, rl.calculateBackoff(10))
}
