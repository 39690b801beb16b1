package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	idle     time.Duration
	stop     chan struct{}
	once     sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a per-IP limiter. Visitors idle for three minutes are forgotten.
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		idle:     3 * time.Minute,
		stop:     make(chan struct{}),
	}
	go rl.cleanupVisitors(time.Minute)
	return rl
}

// GetLimiter returns the limiter for ip, creating it on first sight
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupVisitors(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > rl.idle {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware rejects clients that exceed their bucket with 429
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			log.Printf("Rate limit exceeded for %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}

// ScrapeCooldown lets a scrape trigger through at most once per cooldown. Only
// triggers that end in a 2xx start the cooldown, so a failed run can be retried.
func ScrapeCooldown(cooldown time.Duration) gin.HandlerFunc {
	var (
		lastRun time.Time
		mu      sync.Mutex
	)

	return func(c *gin.Context) {
		mu.Lock()
		if since := time.Since(lastRun); !lastRun.IsZero() && since < cooldown {
			mu.Unlock()
			remaining := (cooldown - since).Round(time.Second)
			c.Header("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": fmt.Sprintf("A scrape ran recently, please wait %v before triggering another", remaining),
			})
			return
		}
		mu.Unlock()

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			mu.Lock()
			lastRun = time.Now()
			mu.Unlock()
		}
	}
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", buildCSPPolicy(c.Request.URL.Path))
		c.Header("Server", "")

		// Price data changes with every scrape
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Header("Cache-Control", "no-store")
		}

		c.Next()
	}
}

// SecurityScanDetection logs probes for well-known sensitive paths
func SecurityScanDetection() gin.HandlerFunc {
	suspiciousPaths := []string{
		".env", ".git", ".DS_Store", "wp-admin", "phpmyadmin",
		".htaccess", "config.php", "wp-config.php", ".ssh", "id_rsa",
		".bak", ".sql", ".db",
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, suspicious := range suspiciousPaths {
			if strings.Contains(path, suspicious) {
				log.Printf("Security scan attempt from %s: %s %s", c.ClientIP(), c.Request.Method, path)
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
				return
			}
		}
		c.Next()
	}
}

// HTTPMethodFilter restricts allowed HTTP methods
func HTTPMethodFilter(allowedMethods []string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, method := range allowedMethods {
		allowed[method] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.Request.Method] {
			log.Printf("Blocked HTTP method %s from %s", c.Request.Method, c.ClientIP())
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "Method not allowed"})
			return
		}
		c.Next()
	}
}

// buildCSPPolicy relaxes script and style rules for the Swagger UI only
func buildCSPPolicy(path string) string {
	if strings.HasPrefix(path, "/swagger/") {
		return "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:;"
	}
	return "default-src 'self'; " +
		"img-src 'self' data:; " +
		"object-src 'none'; " +
		"base-uri 'self'; " +
		"frame-ancestors 'none';"
}
