package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"carpricewatch/internal/models"
	"carpricewatch/internal/scraper"
	"carpricewatch/internal/validation"
)

var (
	// ErrNothingScraped means every brand came back empty, so no generation was written
	ErrNothingScraped = errors.New("no prices were scraped")
	// ErrScrapeInProgress is returned when a scrape is triggered while one is running
	ErrScrapeInProgress = errors.New("a scrape is already in progress")
	// ErrNotFound is returned when a manual row does not exist
	ErrNotFound = errors.New("manual price not found")
)

// ValidationError wraps a rejected manual entry
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// ScrapeRunner is the scraping side of the pipeline
type ScrapeRunner interface {
	ScrapeAll(ctx context.Context) ([]models.PriceRecord, []scraper.FetchResult)
	Brands() []string
}

// Store is the persistence side of the pipeline
type Store interface {
	StoreBatch(records []models.PriceRecord) (string, error)
	AddManual(r models.PriceRecord, ts time.Time) (int64, error)
	DeleteManual(id int64) (bool, error)
	GetEffective() ([]models.StoredPriceRow, error)
	GetHistory(brands, modelNames []string) ([]models.StoredPriceRow, error)
	ListManual() ([]models.StoredPriceRow, error)
	GetRow(id int64) (models.StoredPriceRow, error)
	Status(generations int) (models.StoreStatus, error)
}

// Status is what the status endpoint reports
type Status struct {
	Running    bool                  `json:"running"`
	Brands     []string              `json:"brands"`
	Store      models.StoreStatus    `json:"store"`
	LastScrape *models.ScrapeSummary `json:"lastScrape,omitempty"`
	NextScrape string                `json:"nextScrape,omitempty"`
}

// Tracker runs the scrape -> dedupe -> store pipeline and manages manual rows
type Tracker struct {
	scraper ScrapeRunner
	store   Store
	now     func() time.Time

	running atomic.Bool

	mu         sync.RWMutex
	lastScrape *models.ScrapeSummary
	nextScrape time.Time
	ticker     *time.Ticker
	stop       chan struct{}
}

// New creates a tracker
func New(s ScrapeRunner, store Store) *Tracker {
	return &Tracker{scraper: s, store: store, now: time.Now}
}

// RunFullScrape scrapes every brand, removes duplicates and stores the result as one
// generation. Only one run may be in flight; a run that yields nothing writes nothing.
func (t *Tracker) RunFullScrape(ctx context.Context) (models.ScrapeSummary, error) {
	if !t.running.CompareAndSwap(false, true) {
		return models.ScrapeSummary{}, ErrScrapeInProgress
	}
	defer t.running.Store(false)

	start := t.now()
	log.Println("🔄 Starting full scrape...")

	raw, results := t.scraper.ScrapeAll(ctx)
	records := scraper.Deduplicate(raw)

	summary := models.ScrapeSummary{
		Raw:        len(raw),
		Duplicates: len(raw) - len(records),
		Brands:     make([]models.BrandSummary, 0, len(results)),
	}
	for _, r := range results {
		summary.Brands = append(summary.Brands, r.Summary())
	}

	if len(records) == 0 {
		summary.Duration = time.Since(start).Round(time.Millisecond).String()
		t.remember(summary)
		log.Println("⚠️  Scrape produced no prices, nothing stored")
		return summary, ErrNothingScraped
	}

	ts, err := t.store.StoreBatch(records)
	if err != nil {
		return summary, fmt.Errorf("failed to store scraped prices: %w", err)
	}
	if ts == "" {
		summary.Duration = time.Since(start).Round(time.Millisecond).String()
		t.remember(summary)
		log.Println("⚠️  Scrape produced no positive prices, nothing stored")
		return summary, ErrNothingScraped
	}
	summary.Stored = len(records)
	summary.Timestamp = ts
	summary.Duration = time.Since(start).Round(time.Millisecond).String()
	t.remember(summary)

	log.Printf("✅ Stored %d prices (%d raw, %d duplicates) as generation %s in %s",
		summary.Stored, summary.Raw, summary.Duplicates, ts, summary.Duration)
	return summary, nil
}

func (t *Tracker) remember(summary models.ScrapeSummary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastScrape = &summary
}

// Running reports whether a scrape is in flight
func (t *Tracker) Running() bool {
	return t.running.Load()
}

// AddManual validates a manual entry, converting lakhs to rupees and defaulting the
// timestamp to now, and stores it
func (t *Tracker) AddManual(req models.ManualEntryRequest) (models.StoredPriceRow, error) {
	rec, ts, err := validation.ValidateManualEntry(req, t.now())
	if err != nil {
		return models.StoredPriceRow{}, &ValidationError{Err: err}
	}

	id, err := t.store.AddManual(rec, ts)
	if err != nil {
		return models.StoredPriceRow{}, err
	}
	log.Printf("✏️  Manual price #%d: %s %s %s = ₹%d", id, rec.Brand, rec.Model, rec.Variant, rec.Price)
	return t.store.GetRow(id)
}

// DeleteManual removes a manual row. Scraped rows are never deleted; asking for one
// reports ErrNotFound.
func (t *Tracker) DeleteManual(id int64) error {
	deleted, err := t.store.DeleteManual(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	log.Printf("🗑️  Manual price #%d deleted", id)
	return nil
}

// Latest returns the effective dataset
func (t *Tracker) Latest() ([]models.StoredPriceRow, error) {
	return t.store.GetEffective()
}

// History returns every generation's rows for the given brands and models
func (t *Tracker) History(brands, modelNames []string) ([]models.StoredPriceRow, error) {
	return t.store.GetHistory(brands, modelNames)
}

// ManualEntries lists manual rows newest first
func (t *Tracker) ManualEntries() ([]models.StoredPriceRow, error) {
	return t.store.ListManual()
}

// Status reports the pipeline and store state
func (t *Tracker) Status() (Status, error) {
	store, err := t.store.Status(10)
	if err != nil {
		return Status{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Status{
		Running:    t.Running(),
		Brands:     t.scraper.Brands(),
		Store:      store,
		LastScrape: t.lastScrape,
	}
	if !t.nextScrape.IsZero() {
		s.NextScrape = t.nextScrape.Format(time.RFC3339)
	}
	return s, nil
}

// StartAutoScrape runs a full scrape every interval in the background until
// StopAutoScrape. A tick that lands while a manual scrape is running is skipped.
func (t *Tracker) StartAutoScrape(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	t.mu.Lock()
	if t.ticker != nil {
		t.mu.Unlock()
		return
	}
	t.ticker = time.NewTicker(interval)
	t.stop = make(chan struct{})
	t.nextScrape = t.now().Add(interval)
	ticker, stop, next := t.ticker, t.stop, t.nextScrape
	t.mu.Unlock()

	log.Printf("🔄 Auto-scrape scheduled every %v (next: %s)", interval, next.Format("Mon, 02 Jan 2006 15:04"))

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			t.mu.Lock()
			t.nextScrape = t.now().Add(interval)
			t.mu.Unlock()

			log.Println("⏰ Auto-scrape triggered")
			if _, err := t.RunFullScrape(ctx); err != nil {
				log.Printf("⚠️  Auto-scrape: %v", err)
			}
		}
	}()
}

// StopAutoScrape stops the background schedule
func (t *Tracker) StopAutoScrape() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.stop)
	t.ticker = nil
	t.nextScrape = time.Time{}
	log.Println("🛑 Auto-scrape stopped")
}
