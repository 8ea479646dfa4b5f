package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(2, time.Minute)
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Error("third request should be limited")
	}
	if !l.Allow("b") {
		t.Error("other keys are independent")
	}
	if l.Remaining("a") != 0 || l.Remaining("c") != 2 {
		t.Errorf("remaining a=%d c=%d", l.Remaining("a"), l.Remaining("c"))
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("reset key should pass again")
	}
}

func TestLimiter_Refills(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(4, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		if !l.Allow("ip") {
			t.Fatalf("request %d limited", i+1)
		}
	}
	if l.Allow("ip") {
		t.Fatal("bucket should be empty")
	}

	// One token comes back every 15s.
	now = now.Add(16 * time.Second)
	if got := l.Remaining("ip"); got != 1 {
		t.Errorf("remaining after 16s = %d, want 1", got)
	}
	if !l.Allow("ip") || l.Allow("ip") {
		t.Error("exactly one request should pass after 16s")
	}

	now = now.Add(5 * time.Minute)
	if got := l.Remaining("ip"); got != 4 {
		t.Errorf("remaining after idle = %d, want 4", got)
	}
	if got := l.RetryAfter(); got != 15 {
		t.Errorf("RetryAfter = %d, want 15", got)
	}
}

func TestLimiter_SweepDropsIdleBuckets(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("idle")
	now = now.Add(30 * time.Second)
	l.Allow("busy")
	now = now.Add(45 * time.Second)
	l.sweep()

	l.mu.Lock()
	_, idle := l.buckets["idle"]
	_, busy := l.buckets["busy"]
	l.mu.Unlock()
	if idle || !busy {
		t.Errorf("after sweep idle=%v busy=%v, want false true", idle, busy)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.1:1234", "198.51.100.4"},
		{"remote with port", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	h := Middleware(New(1, time.Minute), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/policies", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/policies", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiter(10, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/api/auth/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Client@Example.ma"); !ok {
			t.Fatalf("attempt %d rejected", i+1)
		}
	}
	if ok, reason := ll.Check(r, "client@example.ma "); ok || reason == "" {
		t.Error("third attempt for the same email should be rejected")
	}
	ll.ResetEmail("CLIENT@example.ma")
	if ok, _ := ll.Check(r, "client@example.ma"); !ok {
		t.Error("reset email should be allowed again")
	}
}
