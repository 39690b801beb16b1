package scraper

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"carpricewatch/internal/models"
)

const defaultBrandWorkers = 8

// Orchestrator runs every brand fetcher concurrently and concatenates their records
type Orchestrator struct {
	fetchers     []Fetcher
	BrandWorkers int
}

// NewOrchestrator creates an orchestrator over fetchers
func NewOrchestrator(fetchers []Fetcher, brandWorkers int) *Orchestrator {
	if brandWorkers <= 0 {
		brandWorkers = defaultBrandWorkers
	}
	return &Orchestrator{fetchers: fetchers, BrandWorkers: brandWorkers}
}

// Brands lists the brands this orchestrator covers, in registration order
func (o *Orchestrator) Brands() []string {
	brands := make([]string, 0, len(o.fetchers))
	for _, f := range o.fetchers {
		brands = append(brands, f.Brand())
	}
	return brands
}

// ScrapeAll runs every fetcher and returns the concatenated records plus one result per
// brand (records included). A failing brand contributes nothing; it never fails the run.
// Record order across brands follows completion order.
func (o *Orchestrator) ScrapeAll(ctx context.Context) ([]models.PriceRecord, []FetchResult) {
	if len(o.fetchers) == 0 {
		return nil, nil
	}

	done := make(chan FetchResult, len(o.fetchers))
	var g errgroup.Group
	g.SetLimit(o.BrandWorkers)
	for _, f := range o.fetchers {
		g.Go(func() error {
			start := time.Now()
			res := safeFetch(ctx, f)
			log.Printf("🚗 %s: %d records, %d/%d requests failed (%s) in %v",
				res.Brand, len(res.Records), res.Failed, res.Requests, res.Status(), time.Since(start).Round(time.Millisecond))
			done <- res
			return nil
		})
	}
	g.Wait()
	close(done)

	var (
		all     []models.PriceRecord
		results []FetchResult
	)
	for res := range done {
		all = append(all, res.Records...)
		results = append(results, res)
	}
	return all, results
}

func safeFetch(ctx context.Context, f Fetcher) (res FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			res = failedResult(f.Brand(), errPanic(r))
		}
	}()
	res = f.Fetch(ctx)
	if res.Brand == "" {
		res.Brand = f.Brand()
	}
	return res
}
