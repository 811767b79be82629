package rate

import (
	"net/http"
	"testing"
	"time"
)

func TestLimiter_AllowAndThrottle(t *testing.T) {
	lm := NewLimiterMap(2, 1, 200*time.Millisecond) // 2 req/min, burst 1
	defer lm.Stop()
	ip := "1.2.3.4"
	if !lm.Allow(ip) { t.Fatalf("first should allow") }
	if lm.Allow(ip) { t.Fatalf("second should be throttled") }
	if !lm.Allow("other") { t.Fatalf("keys are independent") }
}

func TestLimiter_Disabled(t *testing.T) {
	lm := NewLimiterMap(0, 0, time.Second)
	defer lm.Stop()
	for i := 0; i < 50; i++ {
		if !lm.Allow("k") { t.Fatalf("request %d throttled with limiting disabled", i) }
	}
}

func TestLimiter_ReaperEvictsIdle(t *testing.T) {
	lm := NewLimiterMap(100, 1, 50*time.Millisecond)
	defer lm.Stop()
	if !lm.Allow("5.6.7.8") { t.Fatalf("allow") }
	time.Sleep(150 * time.Millisecond)
	if n := lm.Len(); n != 0 { t.Fatalf("idle key not evicted, len=%d", n) }
	if !lm.Allow("5.6.7.8") { t.Fatalf("allow after eviction") }
}

func TestLimiter_StopTwice(t *testing.T) {
	lm := NewLimiterMap(10, 1, time.Second)
	lm.Stop()
	lm.Stop()
}

func TestIPFromRequest_HeaderAndRemoteAddr(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "http://x/", nil)
	r.Header.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.1")
	if ip := IPFromRequest(r); ip != "203.0.113.1" { t.Fatalf("xff ip=%s", ip) }

	r2, _ := http.NewRequest(http.MethodGet, "http://x/", nil)
	r2.RemoteAddr = "192.0.2.5:1234"
	if ip := IPFromRequest(r2); ip != "192.0.2.5" { t.Fatalf("remote ip=%s", ip) }

	r3, _ := http.NewRequest(http.MethodGet, "http://x/", nil)
	r3.RemoteAddr = "no-port"
	if ip := IPFromRequest(r3); ip != "no-port" { t.Fatalf("raw ip=%s", ip) }
}
