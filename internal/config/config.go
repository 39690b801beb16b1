package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"carpricewatch/internal/cache"
	"carpricewatch/internal/scraper"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	Port     string
	DBPath   string
	CacheDir string

	HTTPTimeout       time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RequestsPerSecond float64

	BrandWorkers   int
	ModelWorkers   int
	ScrapeCooldown time.Duration
	ScrapeInterval time.Duration

	MGAPIKey       string
	ToyotaDealerID int
	UseBrowser     bool

	AllowedOrigins       []string
	APIRequestsPerSecond float64
	APIBurst             int
}

// Load reads the .env file if present and returns a populated Config
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		DBPath:   getEnv("DB_PATH", filepath.Join("data", "car_prices.db")),
		CacheDir: getEnv("CACHE_DIR", "data"),

		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 20*time.Second),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelay:    getEnvDuration("RETRY_BASE_DELAY", time.Second),
		RequestsPerSecond: getEnvFloat("REQUESTS_PER_SECOND", 0),

		BrandWorkers:   getEnvInt("BRAND_WORKERS", 8),
		ModelWorkers:   getEnvInt("MODEL_WORKERS", 6),
		ScrapeCooldown: getEnvDuration("SCRAPE_COOLDOWN", 2*time.Minute),
		ScrapeInterval: getEnvDuration("SCRAPE_INTERVAL", 0),

		MGAPIKey:       getEnv("MG_API_KEY", ""),
		ToyotaDealerID: getEnvInt("TOYOTA_DEALER_ID", 704),
		UseBrowser:     getEnvBool("USE_BROWSER", false),

		AllowedOrigins:       getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		APIRequestsPerSecond: getEnvFloat("API_REQUESTS_PER_SECOND", 5),
		APIBurst:             getEnvInt("API_BURST", 20),
	}
}

// FilterCachePath is where Tata filter options are persisted
func (c *Config) FilterCachePath() string {
	return filepath.Join(c.CacheDir, cache.CacheFileName)
}

// ScraperOptions maps the configuration onto the scraper's wiring options
func (c *Config) ScraperOptions(filters *cache.FilterCache) scraper.Options {
	return scraper.Options{
		Client: scraper.ClientOptions{
			Timeout:           c.HTTPTimeout,
			MaxAttempts:       c.MaxRetries,
			BaseDelay:         c.RetryBaseDelay,
			RequestsPerSecond: c.RequestsPerSecond,
		},
		BrandWorkers:   c.BrandWorkers,
		ModelWorkers:   c.ModelWorkers,
		FilterCache:    filters,
		MGAPIKey:       c.MGAPIKey,
		ToyotaDealerID: c.ToyotaDealerID,
		UseBrowser:     c.UseBrowser,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("⚠️  Ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil && f >= 0 {
			return f
		}
		log.Printf("⚠️  Ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Printf("⚠️  Ignoring invalid %s=%q", key, val)
	}
	return fallback
}

// getEnvDuration accepts Go durations ("1500ms", "2m") or a bare number of seconds
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	log.Printf("⚠️  Ignoring invalid %s=%q", key, val)
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
