package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"escrow": {RatePerSecond: 1, Burst: 1},
	}, nil)
	handler := limiter.Middleware("escrow")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/requests", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}
}

func TestRateLimiterSeparatesRoutes(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"escrow": {RatePerSecond: 1, Burst: 1},
		"relay":  {RatePerSecond: 1, Burst: 1},
	}, nil)
	escrowHandler := limiter.Middleware("escrow")(okHandler())
	relayHandler := limiter.Middleware("relay")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/requests", nil)
	res := httptest.NewRecorder()
	escrowHandler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected escrow request to succeed, got %d", res.Code)
	}

	relayReq := httptest.NewRequest(http.MethodPost, "/v1/relay/payments", nil)
	relayRes := httptest.NewRecorder()
	relayHandler.ServeHTTP(relayRes, relayReq)
	if relayRes.Code != http.StatusOK {
		t.Fatalf("expected first relay request to succeed, got %d", relayRes.Code)
	}

	relayRes = httptest.NewRecorder()
	relayHandler.ServeHTTP(relayRes, relayReq)
	if relayRes.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second relay request to hit limit, got %d", relayRes.Code)
	}
}

func TestRateLimiterPrefersCallerOverIP(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"escrow": {RatePerSecond: 1, Burst: 1},
	}, nil)
	handler := limiter.Middleware("escrow")(okHandler())

	for _, caller := range [][20]byte{{0: 0x0a}, {0: 0x0b}} {
		req := httptest.NewRequest(http.MethodPost, "/v1/requests", nil)
		req = req.WithContext(WithCaller(req.Context(), caller))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("expected caller %x to have its own budget, got %d", caller[0], res.Code)
		}
	}
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{"escrow": {RatePerSecond: 1, Burst: 1}}, nil)
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }
	limiter.obtainLimiter("a", RateLimit{})
	now = now.Add(2 * visitorTTL)
	limiter.obtainLimiter("b", RateLimit{})
	if _, ok := limiter.visitors["a"]; ok {
		t.Fatalf("expected idle visitor to be swept")
	}
	if len(limiter.visitors) != 1 {
		t.Fatalf("expected one visitor, got %d", len(limiter.visitors))
	}
}
