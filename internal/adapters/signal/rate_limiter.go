package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Ringcast/internal/core"
)

// RegisterRateLimiter is a sliding-window limiter of register attempts per connection.
type RegisterRateLimiter struct {
	mu       sync.Mutex
	history  map[core.ConnectionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRegisterRateLimiter(limit int, interval time.Duration) *RegisterRateLimiter {
	return &RegisterRateLimiter{
		history:  make(map[core.ConnectionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RegisterRateLimiter) Allow(cid core.ConnectionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[cid]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[cid] = fresh
		return false
	}
	rl.history[cid] = append(fresh, now)
	return true
}

// Forget drops the history of a closed connection.
func (rl *RegisterRateLimiter) Forget(cid core.ConnectionID) {
	rl.mu.Lock()
	delete(rl.history, cid)
	rl.mu.Unlock()
}
