package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether the request identified by key may proceed within
// the current window. Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type window struct {
	count int
	start time.Time
}

// FixedWindow is an in-memory fixed-window counter keyed by client identity.
// State lives for the process lifetime and resets on restart.
type FixedWindow struct {
	max    int
	length time.Duration
	mu     sync.Mutex
	keys   map[string]*window
}

// NewFixedWindow builds a limiter admitting at most max requests per key in
// each window of the given length.
func NewFixedWindow(max int, length time.Duration) *FixedWindow {
	return &FixedWindow{max: max, length: length, keys: make(map[string]*window)}
}

func (l *FixedWindow) Allow(_ context.Context, key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.keys[key]
	if w == nil || now.Sub(w.start) >= l.length {
		l.keys[key] = &window{count: 1, start: now}
		return true
	}
	if w.count >= l.max {
		return false
	}
	w.count++
	return true
}
