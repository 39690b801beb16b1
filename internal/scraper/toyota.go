package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"carpricewatch/internal/models"
)

// ToyotaConfig configures the Toyota dealer price list fetcher
type ToyotaConfig struct {
	BaseURL  string
	DealerID int
	Workers  int
}

// DefaultToyotaConfig returns the Delhi dealer (704) configuration
func DefaultToyotaConfig() ToyotaConfig {
	return ToyotaConfig{
		BaseURL:  "https://webapi.toyotabharat.com/1.0/api/price",
		DealerID: 704,
		Workers:  defaultModelWorkers,
	}
}

// ToyotaFetcher reads the XML price API: one call for the model list, one per model
type ToyotaFetcher struct {
	client *Client
	cfg    ToyotaConfig
}

// NewToyotaFetcher creates a Toyota fetcher
func NewToyotaFetcher(client *Client, cfg ToyotaConfig) *ToyotaFetcher {
	return &ToyotaFetcher{client: client, cfg: cfg}
}

func (f *ToyotaFetcher) Brand() string { return models.BrandToyota }

type toyotaModelList struct {
	Models []struct {
		ID   string `xml:"Id"`
		Name string `xml:"Name"`
	} `xml:"PriceModel"`
}

// Only direct children of PriceGrade are read; nested grade parts carry their own Name.
type toyotaPriceList struct {
	Prices []struct {
		Amount string `xml:"Amount"`
		Grade  struct {
			Name     string `xml:"Name"`
			FuelType string `xml:"FuelType"`
			Details  string `xml:"Details"`
		} `xml:"PriceGrade"`
	} `xml:"Price"`
}

var toyotaHeaders = map[string]string{
	"Accept":  "application/xml, text/xml, */*; q=0.01",
	"Origin":  "https://www.toyotabharat.com",
	"Referer": "https://www.toyotabharat.com/",
}

var (
	toyota2WDRe     = regexp.MustCompile(`\b2WD `)
	toyotaBracketRe = regexp.MustCompile(`\[.*?\]`)
)

// Fetch discovers the current model list and then prices every model in parallel
func (f *ToyotaFetcher) Fetch(ctx context.Context) FetchResult {
	body, err := f.client.PostForm(ctx, f.cfg.BaseURL+"/models", nil, toyotaHeaders)
	if err != nil {
		return failedResult(f.Brand(), fmt.Errorf("model list: %w", err))
	}
	var list toyotaModelList
	if err := xml.Unmarshal(body, &list); err != nil {
		return failedResult(f.Brand(), fmt.Errorf("failed to decode model list: %w", err))
	}

	jobs := make([]job, 0, len(list.Models))
	for _, m := range list.Models {
		id, name := strings.TrimSpace(m.ID), strings.TrimSpace(m.Name)
		if id == "" || name == "" {
			continue
		}
		jobs = append(jobs, job{
			label: name,
			run: func(ctx context.Context) ([]models.PriceRecord, error) {
				return f.fetchModel(ctx, id, name)
			},
		})
	}
	return runJobs(ctx, f.Brand(), f.cfg.Workers, jobs)
}

func (f *ToyotaFetcher) fetchModel(ctx context.Context, id, name string) ([]models.PriceRecord, error) {
	url := fmt.Sprintf("%s/list/%d/%s", f.cfg.BaseURL, f.cfg.DealerID, id)
	body, err := f.client.PostForm(ctx, url, nil, toyotaHeaders)
	if err != nil {
		return nil, err
	}
	var list toyotaPriceList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode price list: %w", err)
	}

	var out []models.PriceRecord
	for _, p := range list.Prices {
		price, ok := ValidPrice(strings.TrimSpace(p.Amount))
		if !ok {
			continue
		}
		out = keep(out, models.PriceRecord{
			Brand:        models.BrandToyota,
			Model:        name,
			Fuel:         NormalizeFuel(p.Grade.FuelType),
			Transmission: NormalizeTransmission(p.Grade.Details),
			Variant:      CleanToyotaVariant(name, p.Grade.Name),
			Price:        price,
		})
	}
	return out, nil
}

// CleanToyotaVariant drops the "2WD " drive marker and bracketed notes
func CleanToyotaVariant(model, raw string) string {
	v := toyota2WDRe.ReplaceAllString(raw, "")
	v = toyotaBracketRe.ReplaceAllString(v, "")
	return CleanVariant(v, model, "Toyota")
}
