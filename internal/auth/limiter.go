package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	sweepMinClients = 1024
	sweepEvery      = time.Minute
)

// LoginLimiter throttles login attempts per client key (usually the IP).
type LoginLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows perMinute attempts per key with the given burst.
func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &LoginLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idle:    10 * time.Minute,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether key may attempt a login now.
func (l *LoginLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.sweep(now)
	l.mu.Unlock()
	return c.lim.AllowN(now, 1)
}

// sweep forgets idle clients, at most once per sweepEvery. Caller holds l.mu.
func (l *LoginLimiter) sweep(now time.Time) {
	if len(l.clients) < sweepMinClients || now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.clients, k)
		}
	}
}
