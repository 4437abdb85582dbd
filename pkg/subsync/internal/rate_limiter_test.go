package internal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRateLimiter_EnforcesLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.allow("192.168.1.1") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	if limiter.allow("192.168.1.1") {
		t.Error("Fourth request should be rejected")
	}

	// Different IP has its own bucket
	if !limiter.allow("192.168.1.2") {
		t.Error("Different IP should be allowed")
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	window := 50 * time.Millisecond
	limiter := NewRateLimiter(1, window)

	if !limiter.allow("10.0.0.1") {
		t.Fatal("First request should be allowed")
	}
	if limiter.allow("10.0.0.1") {
		t.Fatal("Second request within window should be rejected")
	}

	time.Sleep(window + 10*time.Millisecond)

	if !limiter.allow("10.0.0.1") {
		t.Error("Request after window reset should be allowed")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil)
	req.RemoteAddr = "203.0.113.5:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rec.Code)
	}
}

func TestGetClientIP_ForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.2")

	if ip := GetClientIP(req); ip != "198.51.100.7" {
		t.Errorf("Expected first forwarded IP, got %s", ip)
	}

	req.Header.Del("X-Forwarded-For")
	if ip := GetClientIP(req); ip != "127.0.0.1:9999" {
		t.Errorf("Expected RemoteAddr fallback, got %s", ip)
	}
}

func TestReadBodyStrict_EnforcesLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))

	body, err := ReadBodyStrict(rec, req, 128)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(body) != 64 {
		t.Errorf("Expected 64 bytes, got %d", len(body))
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 256)))
	if _, err := ReadBodyStrict(rec, req, 128); err == nil {
		t.Error("Expected error for oversized body")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if _, err := ReadBodyStrict(rec, req, 128); err == nil {
		t.Error("Expected error for empty body")
	}
}
