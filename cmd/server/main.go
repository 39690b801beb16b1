// Car Price Watch API
// @title Car Price Watch API
// @version 1.0
// @description Scrapes ex-showroom prices for Indian car brands and serves the latest and historical prices
// @host localhost:8080
// @BasePath /

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	_ "carpricewatch/docs"
	"carpricewatch/internal/cache"
	"carpricewatch/internal/config"
	"carpricewatch/internal/database"
	"carpricewatch/internal/handlers"
	"carpricewatch/internal/middleware"
	"carpricewatch/internal/scraper"
	"carpricewatch/internal/tracker"
	"carpricewatch/internal/util"
)

func main() {
	cfg := config.Load()

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	filters := cache.NewFilterCache(cfg.FilterCachePath(), 0)
	s := scraper.New(cfg.ScraperOptions(filters))
	defer s.Close()

	t := tracker.New(s, db)
	priceHandler := handlers.NewPriceHandler(t)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ScrapeInterval > 0 {
		t.StartAutoScrape(ctx, cfg.ScrapeInterval)
		defer t.StopAutoScrape()
	}

	// Initialize Gin router
	r := gin.Default()

	// Configure trusted proxies for Cloudflare Tunnels
	r.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
		"172.16.0.0/12",  // Docker networks
		"10.0.0.0/8",     // Private networks
		"192.168.0.0/16", // Private networks
	})

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.APIRequestsPerSecond), cfg.APIBurst)
	defer limiter.Stop()

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.SecurityScanDetection())
	r.Use(middleware.HTTPMethodFilter([]string{"GET", "POST", "DELETE", "OPTIONS", "HEAD"}))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))
	priceHandler.RegisterRoutes(api, middleware.ScrapeCooldown(cfg.ScrapeCooldown))
	api.GET("/health", healthHandler(db))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s (%d brands)", cfg.Port, len(s.Brands()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// healthHandler godoc
// @Summary Liveness and database check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} util.ErrorBody "database unavailable"
// @Router /api/health [get]
func healthHandler(db *database.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			util.SafeErrorResponse(c, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
