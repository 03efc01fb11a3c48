package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Authenticate(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	w.Write([]byte(id))
}

func TestAuth(t *testing.T) {
	h := Auth(fakeVerifier{"good": "user-1"})(http.HandlerFunc(echoUser))

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer good", http.StatusOK, "user-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/get-user", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
		if tc.status == http.StatusOK && rec.Body.String() != tc.body {
			t.Fatalf("%s: expected body %q, got %q", tc.name, tc.body, rec.Body.String())
		}
	}
}

func TestUserIDFromContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatalf("expected no user id on a bare context")
	}
	id, ok := UserIDFromContext(WithUserID(context.Background(), "user-1"))
	if !ok || id != "user-1" {
		t.Fatalf("expected user-1, got %q", id)
	}
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _, _ := l.Allow(ctx, "a"); !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if ok, remaining, _ := l.Allow(ctx, "a"); ok || remaining != 0 {
		t.Fatalf("fourth request should be limited, remaining=%d", remaining)
	}
	if ok, _, _ := l.Allow(ctx, "b"); !ok {
		t.Fatalf("keys must be limited independently")
	}

	now = now.Add(20 * time.Second)
	if ok, _, _ := l.Allow(ctx, "a"); !ok {
		t.Fatalf("a token should refill after window/limit")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(NewMemoryLimiter(2, time.Hour), "auth")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Header().Get("X-RateLimit-Limit") != "2" {
			t.Fatalf("expected limit header, got %q", rec.Header().Get("X-RateLimit-Limit"))
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("another client should not be limited, got %d", rec.Code)
	}
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	limiter := NewLimiter(client, 1, time.Minute)
	if _, ok := limiter.(*RedisLimiter); !ok {
		t.Fatalf("expected a Redis limiter when a client is given")
	}

	h := RateLimit(limiter, "auth")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("unreachable Redis must not block requests, got %d", rec.Code)
		}
	}

	if _, ok := NewLimiter(nil, 1, time.Minute).(*MemoryLimiter); !ok {
		t.Fatalf("expected an in-process limiter without Redis")
	}
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com:443/hello", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for allowed host, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "http://evil.example.com/hello", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign host, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/add-story", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}
}
