package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"carpricewatch/internal/models"
)

const defaultModelWorkers = 6

// Fetch statuses reported per brand
const (
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Fetcher collects normalized prices for one brand. Implementations own their endpoint
// configuration and never fail the whole brand for a single bad request.
type Fetcher interface {
	Brand() string
	Fetch(ctx context.Context) FetchResult
}

// FetchResult is what a brand fetch produced, with enough bookkeeping to tell
// "nothing currently priced" apart from "source is broken"
type FetchResult struct {
	Brand    string
	Records  []models.PriceRecord
	Requests int
	Failed   int
	Err      error
}

// Status classifies the result
func (r FetchResult) Status() string {
	switch {
	case r.Requests > 0 && r.Failed >= r.Requests:
		return StatusFailed
	case r.Failed > 0:
		return StatusPartial
	case len(r.Records) == 0:
		return StatusEmpty
	}
	return StatusOK
}

// Summary converts the result for API responses
func (r FetchResult) Summary() models.BrandSummary {
	s := models.BrandSummary{
		Brand:    r.Brand,
		Status:   r.Status(),
		Records:  len(r.Records),
		Requests: r.Requests,
		Failed:   r.Failed,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// job is one upstream request (one model, or one model x filter combination)
type job struct {
	label string
	run   func(ctx context.Context) ([]models.PriceRecord, error)
}

type jobOutcome struct {
	label   string
	records []models.PriceRecord
	err     error
}

// runJobs fans jobs out over a bounded pool and gathers their records in completion
// order. A failing job is logged and counted; it never stops its siblings.
func runJobs(ctx context.Context, brand string, workers int, jobs []job) FetchResult {
	if workers <= 0 {
		workers = defaultModelWorkers
	}
	result := FetchResult{Brand: brand, Requests: len(jobs)}
	if len(jobs) == 0 {
		return result
	}

	outcomes := make(chan jobOutcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			outcomes <- safeRun(ctx, j)
			return nil
		})
	}
	g.Wait()
	close(outcomes)

	var errs []error
	for o := range outcomes {
		if o.err != nil {
			log.Printf("❌ %s %s: %v", brand, o.label, o.err)
			result.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", o.label, o.err))
			continue
		}
		result.Records = append(result.Records, o.records...)
	}
	result.Err = errors.Join(errs...)
	return result
}

// safeRun turns a panic in source-specific parsing into an ordinary job failure
func safeRun(ctx context.Context, j job) (out jobOutcome) {
	out.label = j.label
	defer func() {
		if r := recover(); r != nil {
			out.records = nil
			out.err = errPanic(r)
		}
	}()
	out.records, out.err = j.run(ctx)
	return out
}

func errPanic(r any) error {
	return fmt.Errorf("panic while parsing: %v", r)
}

// failedResult is used when a brand cannot even enumerate what to fetch
func failedResult(brand string, err error) FetchResult {
	log.Printf("❌ %s: %v", brand, err)
	return FetchResult{Brand: brand, Requests: 1, Failed: 1, Err: err}
}

// mergeResults folds an enumeration step's bookkeeping into the fan-out result
func mergeResults(base FetchResult, more FetchResult) FetchResult {
	base.Records = append(base.Records, more.Records...)
	base.Requests += more.Requests
	base.Failed += more.Failed
	base.Err = errors.Join(base.Err, more.Err)
	return base
}

// keep appends rec when its price is valid
func keep(out []models.PriceRecord, rec models.PriceRecord) []models.PriceRecord {
	if rec.Price <= 0 {
		return out
	}
	return append(out, rec)
}
