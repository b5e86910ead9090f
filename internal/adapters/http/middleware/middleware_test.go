package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// TestRateLimiter_Refill tests the token bucket against a controlled clock.
func TestRateLimiter_Refill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other IPs have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Fatal("half an interval must not refill")
	}
	now = now.Add(31 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("a full interval refills")
	}

	now = now.Add(10 * time.Minute)
	rl.sweep(5 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("visitors = %d after sweep, want 0", len(rl.visitors))
	}
}

// TestRateLimit_KeysByHost tests that the port does not split buckets.
func TestRateLimit_KeysByHost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(NewRateLimiter(ctx, 1, time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, port := range []string{"1111", "2222"} {
		req := httptest.NewRequest("GET", "/api/clubs", nil)
		req.RemoteAddr = "10.0.0.1:" + port
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		want := http.StatusOK
		if i == 1 {
			want = http.StatusTooManyRequests
		}
		if rr.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, rr.Code, want)
		}
	}
}

// TestSecurityHeaders tests the API header set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

// TestCSRF_FormPostsNeedToken tests that form posts are rejected without a token
// while JSON and Bearer requests pass.
func TestCSRF_FormPostsNeedToken(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		CSRF(key, CSRFOptions{TrustedOrigins: []string{"example.com"}}),
		Auth(testVerifier()),
	)

	form := httptest.NewRequest("POST", "/api/clubs", strings.NewReader(url.Values{"name": {"x"}}.Encode()))
	form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, form)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form without token: status = %d, want 403", rr.Code)
	}

	js := httptest.NewRequest("POST", "/api/clubs", strings.NewReader(`{}`))
	js.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, js)
	if rr.Code != http.StatusOK {
		t.Errorf("json: status = %d, want 200", rr.Code)
	}

	token, _ := testVerifier().Issue(testMember, time.Hour)
	bearer := httptest.NewRequest("POST", "/api/clubs", strings.NewReader("name=x"))
	bearer.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	bearer.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, bearer)
	if rr.Code != http.StatusOK {
		t.Errorf("bearer form: status = %d, want 200", rr.Code)
	}
}
