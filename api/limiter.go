package api

import (
	"context"
	"sync"
	"time"

	"github.com/EPecherkin/ai-rm/logger"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiters hands out one token bucket per client address.
type limiters struct {
	mu    sync.Mutex
	byKey map[string]*visitor
	limit rate.Limit
	burst int
}

func newLimiters(limits Limits) *limiters {
	limit := rate.Limit(limits.Rate)
	if limits.Rate <= 0 {
		limit = rate.Inf
	}
	burst := limits.Burst
	if burst <= 0 {
		burst = 1
	}
	return &limiters{byKey: map[string]*visitor{}, limit: limit, burst: burst}
}

func (l *limiters) allow(key string) bool {
	l.mu.Lock()
	v, ok := l.byKey[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()
	return v.limiter.Allow()
}

// sweep forgets clients not seen since cutoff.
func (l *limiters) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, key)
			n++
		}
	}
	return n
}

func (l *limiters) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// GoSweep drops the buckets of clients idle for longer than ttl every
// interval until ctx is done.
func (api *Api) GoSweep(ctx context.Context, interval time.Duration, ttl time.Duration) {
	defer func() {
		if err := recover(); err != nil {
			api.deps.Logger.With(logger.ERROR, err).Error("panic in GoSweep")
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-ttl)
			n := api.creates.sweep(cutoff) + api.submits.sweep(cutoff)
			api.deps.Logger.With("swept", n).Debug("Swept client limiters")
		case <-ctx.Done():
			return
		}
	}
}
