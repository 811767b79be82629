package rate

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	last    time.Time
}

// LimiterMap rate-limits per client key and evicts keys idle longer than ttl.
type LimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*entry
	every    rate.Limit
	burst    int
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLimiterMap allows rpm requests per minute per key with the given burst.
// A non-positive rpm disables limiting.
func NewLimiterMap(rpm, burst int, ttl time.Duration) *LimiterMap {
	every := rate.Inf
	if rpm > 0 {
		every = rate.Every(time.Minute / time.Duration(rpm))
	}
	if burst <= 0 {
		burst = 1
	}
	lm := &LimiterMap{
		limiters: make(map[string]*entry),
		every:    every,
		burst:    burst,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	go lm.reaper()
	return lm
}

func (l *LimiterMap) reaper() {
	t := time.NewTicker(l.ttl)
	defer t.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case now := <-t.C:
			l.mu.Lock()
			for k, e := range l.limiters {
				if now.Sub(e.last) > l.ttl {
					delete(l.limiters, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (l *LimiterMap) Stop() { l.stopOnce.Do(func() { close(l.stopCh) }) }

// Allow reports whether a request for key may proceed now.
func (l *LimiterMap) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = e
	}
	e.last = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Len returns the number of tracked keys (for tests).
func (l *LimiterMap) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// IPFromRequest extracts the client IP, preferring the first
// X-Forwarded-For hop.
func IPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
