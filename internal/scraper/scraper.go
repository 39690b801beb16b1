package scraper

import (
	"context"
	"log"
	"time"

	"carpricewatch/internal/cache"
	"carpricewatch/internal/models"
)

// Options wires the shared client, pools and per-brand settings
type Options struct {
	Client         ClientOptions
	BrandWorkers   int
	ModelWorkers   int
	FilterCache    *cache.FilterCache
	MGAPIKey       string
	ToyotaDealerID int
	UseBrowser     bool
}

// Scraper owns the shared upstream client and every brand fetcher
type Scraper struct {
	client       *Client
	orchestrator *Orchestrator
	browser      *BrowserRenderer
}

// New builds the default eight-brand scraper
func New(opts Options) *Scraper {
	client := NewClient(opts.Client)
	s := &Scraper{client: client}

	var renderer PageRenderer = HTTPRenderer{Client: client}
	if opts.UseBrowser {
		s.browser = NewBrowserRenderer(2 * time.Second)
		renderer = s.browser
		log.Println("🌐 Nissan price list will be rendered in a headless browser")
	}

	s.orchestrator = NewOrchestrator(NewDefaultFetchers(client, renderer, opts), opts.BrandWorkers)
	return s
}

// NewWithFetchers builds a scraper over an explicit fetcher set
func NewWithFetchers(fetchers []Fetcher, brandWorkers int) *Scraper {
	return &Scraper{orchestrator: NewOrchestrator(fetchers, brandWorkers)}
}

// NewDefaultFetchers returns one fetcher per supported brand using the default
// endpoint tables, with model-level pools sized by opts.ModelWorkers
func NewDefaultFetchers(client *Client, renderer PageRenderer, opts Options) []Fetcher {
	maruti := DefaultMarutiConfig()
	tata := DefaultTataConfig()
	hyundai := DefaultHyundaiConfig()
	mahindra := DefaultMahindraConfig()
	toyota := DefaultToyotaConfig()
	kia := DefaultKiaConfig()
	mg := DefaultMGConfig()

	if opts.ModelWorkers > 0 {
		maruti.Workers = opts.ModelWorkers
		tata.Workers = opts.ModelWorkers
		hyundai.Workers = opts.ModelWorkers
		mahindra.Workers = opts.ModelWorkers
		toyota.Workers = opts.ModelWorkers
		kia.Workers = opts.ModelWorkers
	}
	if opts.ToyotaDealerID > 0 {
		toyota.DealerID = opts.ToyotaDealerID
	}
	mg.APIKey = opts.MGAPIKey

	return []Fetcher{
		NewMarutiFetcher(client, maruti),
		NewTataFetcher(client, tata, opts.FilterCache),
		NewHyundaiFetcher(client, hyundai),
		NewMahindraFetcher(client, mahindra),
		NewToyotaFetcher(client, toyota),
		NewKiaFetcher(client, kia),
		NewMGFetcher(client, mg),
		NewNissanFetcher(renderer, DefaultNissanConfig()),
	}
}

// ScrapeAll runs every brand and returns the raw (not yet deduplicated) records
func (s *Scraper) ScrapeAll(ctx context.Context) ([]models.PriceRecord, []FetchResult) {
	return s.orchestrator.ScrapeAll(ctx)
}

// Brands lists the covered brands
func (s *Scraper) Brands() []string {
	return s.orchestrator.Brands()
}

// Close releases the headless browser if one was started
func (s *Scraper) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Printf("⚠️  Failed to close browser: %v", err)
		}
	}
}
