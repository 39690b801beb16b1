package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("User-Agent", "test")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1)
	defer limiter.Stop()
	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	if rec := performRequest(r, http.MethodGet, "/"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, "/"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on rapid second request, got %d", rec.Code)
	}
}

func TestScrapeCooldownBlocksRepeatTrigger(t *testing.T) {
	r := gin.New()
	r.POST("/scrape", ScrapeCooldown(time.Hour), func(c *gin.Context) { c.String(http.StatusOK, "scraped") })

	if rec := performRequest(r, http.MethodPost, "/scrape"); rec.Code != http.StatusOK {
		t.Fatalf("expected first trigger to succeed, got %d", rec.Code)
	}
	rec := performRequest(r, http.MethodPost, "/scrape")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second trigger to be rejected, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestScrapeCooldownIgnoresFailedRuns(t *testing.T) {
	fail := true
	r := gin.New()
	r.POST("/scrape", ScrapeCooldown(time.Hour), func(c *gin.Context) {
		if fail {
			c.String(http.StatusBadGateway, "nothing scraped")
			return
		}
		c.String(http.StatusOK, "scraped")
	})

	if rec := performRequest(r, http.MethodPost, "/scrape"); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	fail = false
	if rec := performRequest(r, http.MethodPost, "/scrape"); rec.Code != http.StatusOK {
		t.Fatalf("failed run should not start the cooldown, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/api/prices/latest", func(c *gin.Context) { c.String(http.StatusOK, "headers") })
	r.GET("/swagger/index.html", func(c *gin.Context) { c.String(http.StatusOK, "docs") })

	rec := performRequest(r, http.MethodGet, "/api/prices/latest")
	for _, header := range []string{"X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy", "Content-Security-Policy"} {
		if rec.Header().Get(header) == "" {
			t.Fatalf("expected header %s to be set", header)
		}
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("API responses should not be cached")
	}

	docs := performRequest(r, http.MethodGet, "/swagger/index.html")
	if docs.Header().Get("Content-Security-Policy") == rec.Header().Get("Content-Security-Policy") {
		t.Fatalf("swagger UI should get the relaxed policy")
	}
}

func TestSecurityScanDetection(t *testing.T) {
	r := gin.New()
	r.Use(SecurityScanDetection())
	r.GET("/*path", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	if rec := performRequest(r, http.MethodGet, "/.env"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected probe to be rejected, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, "/api/health"); rec.Code != http.StatusOK {
		t.Fatalf("expected normal path to pass, got %d", rec.Code)
	}
}

func TestHTTPMethodFilter(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMethodFilter([]string{http.MethodGet}))
	r.Any("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	if rec := performRequest(r, http.MethodGet, "/"); rec.Code != http.StatusOK {
		t.Fatalf("expected GET allowed, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodPut, "/"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected PUT blocked, got %d", rec.Code)
	}
}
