package streaming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUpToBudgetThenDrops(t *testing.T) {
	r := newRateLimiter(2)
	assert.True(t, r.Allow())
	assert.True(t, r.Allow())
	assert.False(t, r.Allow())
}

func TestRateLimiter_ResetsAfterOneSecond(t *testing.T) {
	r := newRateLimiter(1)
	assert.True(t, r.Allow())
	assert.False(t, r.Allow())

	r.windowStart = time.Now().Add(-2 * time.Second)
	assert.True(t, r.Allow())
}

func TestRateLimiter_ZeroBudgetIsUnlimited(t *testing.T) {
	r := newRateLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, r.Allow())
	}
}
