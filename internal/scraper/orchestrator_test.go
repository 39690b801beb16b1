package scraper

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"carpricewatch/internal/models"
)

type fakeFetcher struct {
	brand  string
	result FetchResult
	panics bool
}

func (f fakeFetcher) Brand() string { return f.brand }

func (f fakeFetcher) Fetch(ctx context.Context) FetchResult {
	if f.panics {
		panic("unexpected markup")
	}
	return f.result
}

func TestScrapeAllIsolatesBrands(t *testing.T) {
	tata := []models.PriceRecord{priced("Tata", "a", 1), priced("Tata", "b", 2)}
	o := NewOrchestrator([]Fetcher{
		fakeFetcher{brand: "Tata", result: FetchResult{Brand: "Tata", Records: tata, Requests: 1}},
		fakeFetcher{brand: "MG", result: failedResult("MG", errors.New("HTTP 403"))},
		fakeFetcher{brand: "Nissan", panics: true},
		fakeFetcher{brand: "Kia", result: FetchResult{Records: []models.PriceRecord{priced("Kia", "x", 3)}, Requests: 1}},
	}, 2)

	records, results := o.ScrapeAll(context.Background())
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if len(results) != 4 {
		t.Fatalf("expected one result per brand, got %d", len(results))
	}

	statuses := map[string]string{}
	for _, r := range results {
		statuses[r.Brand] = r.Status()
	}
	want := map[string]string{"Tata": StatusOK, "MG": StatusFailed, "Nissan": StatusFailed, "Kia": StatusOK}
	for brand, s := range want {
		if statuses[brand] != s {
			t.Errorf("%s status = %q, want %q", brand, statuses[brand], s)
		}
	}
}

func TestScrapeAllNoFetchers(t *testing.T) {
	records, results := NewOrchestrator(nil, 0).ScrapeAll(context.Background())
	if records != nil || results != nil {
		t.Fatalf("expected nothing, got %v %v", records, results)
	}
}

func TestOrchestratorBrandsKeepsRegistrationOrder(t *testing.T) {
	o := NewOrchestrator([]Fetcher{fakeFetcher{brand: "Maruti"}, fakeFetcher{brand: "Tata"}}, 0)
	if got := o.Brands(); len(got) != 2 || got[0] != "Maruti" || got[1] != "Tata" {
		t.Fatalf("Brands() = %v", got)
	}
	if o.BrandWorkers != defaultBrandWorkers {
		t.Fatalf("BrandWorkers = %d, want default", o.BrandWorkers)
	}
}

func TestDeduplicate(t *testing.T) {
	a := priced("Kia", "HTK", 1000000)
	b := priced("Kia", "HTX", 1200000)
	c := a
	c.Fuel = models.FuelDiesel

	got := Deduplicate([]models.PriceRecord{a, b, a, c, b})
	if len(got) != 3 {
		t.Fatalf("expected 3 unique records, got %d", len(got))
	}
	if got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("order not preserved: %+v", got)
	}
	if again := Deduplicate(got); !reflect.DeepEqual(again, got) {
		t.Fatalf("Deduplicate is not idempotent: %+v then %+v", got, again)
	}
	if len(Deduplicate(nil)) != 0 {
		t.Fatal("empty input should give empty output")
	}
}
