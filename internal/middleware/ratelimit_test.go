package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func rateLimitedRouter(rps float64, burst int) *gin.Engine {
	router := gin.New()
	// Simulate auth middleware having set the key.
	router.Use(func(c *gin.Context) {
		c.Set("api_key", c.GetHeader("X-API-Key"))
		c.Next()
	})
	router.Use(RateLimit(rps, burst))
	router.POST("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func doRequest(router *gin.Engine, key string) int {
	req := httptest.NewRequest("POST", "/test", nil)
	req.Header.Set("X-API-Key", key)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_WithinBurst(t *testing.T) {
	router := rateLimitedRouter(1, 3)

	for i := 0; i < 3; i++ {
		if code := doRequest(router, "key-1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	router := rateLimitedRouter(0.001, 2)

	doRequest(router, "key-1")
	doRequest(router, "key-1")

	if code := doRequest(router, "key-1"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst exhausted, got %d", code)
	}
}

func TestRateLimit_IndependentBucketsPerKey(t *testing.T) {
	router := rateLimitedRouter(0.001, 1)

	doRequest(router, "key-1")
	if code := doRequest(router, "key-1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected key-1 to be limited, got %d", code)
	}
	if code := doRequest(router, "key-2"); code != http.StatusOK {
		t.Errorf("expected key-2 to have its own bucket, got %d", code)
	}
}
