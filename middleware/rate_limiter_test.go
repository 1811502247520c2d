package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddleware_AllowsWithinBurst(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	for i := 0; i < visitorBurst; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/scan/CARD123", nil)
		req.Header.Set("X-Forwarded-For", "10.1.1.1")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, "request %d within burst should pass", i)
	}
}

func TestRateLimitMiddleware_RejectsBeyondBurst(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	limited := false
	for i := 0; i < visitorBurst*2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/scan/CARD123", nil)
		req.Header.Set("X-Forwarded-For", "10.2.2.2")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}

	assert.True(t, limited, "sustained traffic from one IP should hit the limiter")
}

func TestRateLimitMiddleware_SeparateIPsSeparateBudgets(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	// Exhaust one visitor.
	for i := 0; i < visitorBurst*2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/scan/CARD123", nil)
		req.Header.Set("X-Forwarded-For", "10.3.3.3")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// A different visitor still gets through.
	req := httptest.NewRequest(http.MethodGet, "/api/scan/CARD123", nil)
	req.Header.Set("X-Forwarded-For", "10.4.4.4")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
