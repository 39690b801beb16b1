package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// PageRenderer returns the HTML of a page. Static pages go through the shared HTTP
// client; pages that only fill their price tables with script can use a headless browser.
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// HTTPRenderer fetches pages without running any script
type HTTPRenderer struct {
	Client  *Client
	Headers map[string]string
}

func (r HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	body, err := r.Client.Get(ctx, url, nil, r.Headers)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// BrowserRenderer renders pages in a stealth headless Chromium. The browser is
// launched on first use and shared by later renders until Close.
type BrowserRenderer struct {
	settle time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserRenderer creates a renderer that waits settle after load for dynamic content
func NewBrowserRenderer(settle time.Duration) *BrowserRenderer {
	return &BrowserRenderer{settle: settle}
}

func (r *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	browser, err := r.ensureBrowser()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("page load failed: %w", err)
	}

	if r.settle > 0 {
		select {
		case <-time.After(r.settle):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return page.HTML()
}

// Close shuts the browser down if it was started
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}

func (r *BrowserRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("window-size", "1920,1080").
		Set("user-agent", desktopUserAgent)

	if chromiumPath := findChromiumPath(); chromiumPath != "" {
		log.Printf("🔍 Using Chromium at: %s", chromiumPath)
		l = l.Bin(chromiumPath)
	}
	if isDockerEnvironment() {
		log.Println("🐳 Docker environment detected, applying container-specific settings")
		l = l.Set("disable-setuid-sandbox").
			Set("no-first-run").
			Set("disable-default-apps").
			Set("single-process")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	log.Println("✅ Browser initialized successfully")
	r.browser = browser
	return browser, nil
}

// findChromiumPath looks for a Chromium/Chrome binary in common locations
func findChromiumPath() string {
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
		"/opt/google/chrome/chrome",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// isDockerEnvironment checks if running inside Docker
func isDockerEnvironment() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		return strings.Contains(string(data), "docker") || strings.Contains(string(data), "containerd")
	}
	return false
}
