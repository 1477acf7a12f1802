package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// memoryLimiter keeps one token bucket per key in process memory.
type memoryLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	config  Config
	every   rate.Limit
	now     func() time.Time

	cleanupT *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter creates a limiter that refills cfg.Requests tokens per
// cfg.Window, with a burst of cfg.Requests. Stale buckets are dropped in
// the background until Stop is called.
func NewMemoryLimiter(cfg Config) Limiter {
	defaults := DefaultConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = defaults.Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}

	l := &memoryLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		every:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	l.cleanupT = time.NewTicker(cfg.Window * 2)
	go l.cleanup()

	return l
}

func (l *memoryLimiter) Allow(key string) bool {
	if !l.config.Enabled {
		return true
	}

	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.config.Requests)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

func (l *memoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *memoryLimiter) cleanup() {
	for {
		select {
		case <-l.cleanupT.C:
			l.cleanupStale()
		case <-l.stopCh:
			l.cleanupT.Stop()
			return
		}
	}
}

// cleanupStale drops buckets idle for two windows. An idle bucket is full
// again by then, so dropping it changes nothing for the client.
func (l *memoryLimiter) cleanupStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	staleThreshold := l.config.Window * 2
	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > staleThreshold {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the background cleanup goroutine.
func (l *memoryLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Stoppable is a limiter that owns a background goroutine.
type Stoppable interface {
	Limiter
	Stop()
}

var _ Stoppable = (*memoryLimiter)(nil)
