package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	count int
	start time.Time
}

// Limiter admits up to max messages per sender within a fixed window.
// State is in-memory only and lost on restart; limiting is advisory,
// not security-critical.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[int64]*bucket
}

func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		now:     time.Now,
		buckets: make(map[int64]*bucket),
	}
}

// Allow reports whether a message from the sender may be processed.
// The first message from a sender opens a fresh bucket; an elapsed
// window resets it. Safe for concurrent use.
func (l *Limiter) Allow(senderID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[senderID]
	if !ok || now.Sub(b.start) >= l.window {
		l.buckets[senderID] = &bucket{count: 1, start: now}
		return true
	}
	b.count++
	return b.count <= l.max
}
