package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"carpricewatch/internal/models"
)

// HyundaiModel is one model id on the Hyundai price service
type HyundaiModel struct {
	ModelID int
	Name    string
}

// HyundaiConfig configures the Hyundai price API fetcher
type HyundaiConfig struct {
	BaseURL string
	CityID  int
	Models  []HyundaiModel
	Workers int
}

// DefaultHyundaiConfig returns the Delhi (city 1370) configuration
func DefaultHyundaiConfig() HyundaiConfig {
	return HyundaiConfig{
		BaseURL: "https://api.hyundai.co.in/service/price/getPriceByModelAndCity",
		CityID:  1370,
		Models: []HyundaiModel{
			{24, "Grand i10 NIOS"}, {39, "i20"}, {41, "i20 N Line"}, {35, "AURA"},
			{45, "Verna"}, {18, "Venue"}, {37, "Creta"}, {40, "Alcazar"},
			{46, "EXTER"}, {42, "Tucson"}, {43, "Venue N Line"}, {47, "Creta N Line"},
			{48, "Creta Electric"},
		},
		Workers: 14,
	}
}

// HyundaiFetcher calls the price-by-model-and-city endpoint once per model
type HyundaiFetcher struct {
	client *Client
	cfg    HyundaiConfig
}

// NewHyundaiFetcher creates a Hyundai fetcher
func NewHyundaiFetcher(client *Client, cfg HyundaiConfig) *HyundaiFetcher {
	return &HyundaiFetcher{client: client, cfg: cfg}
}

func (f *HyundaiFetcher) Brand() string { return models.BrandHyundai }

type hyundaiVariant struct {
	Price        any    `json:"price"`
	FuelType     string `json:"fuelType"`
	Transmission string `json:"transmission"`
	Variant      string `json:"variant"`
	Edition      string `json:"edition"`
}

var hyundaiHeaders = map[string]string{
	"Accept":          "application/json, text/javascript, */*; q=0.01",
	"Accept-Language": "en-US,en;q=0.9",
	"Origin":          "https://www.hyundai.com",
	"Referer":         "https://www.hyundai.com/",
}

// Fetch requests every configured model in parallel
func (f *HyundaiFetcher) Fetch(ctx context.Context) FetchResult {
	jobs := make([]job, 0, len(f.cfg.Models))
	for _, m := range f.cfg.Models {
		jobs = append(jobs, job{
			label: m.Name,
			run: func(ctx context.Context) ([]models.PriceRecord, error) {
				return f.fetchModel(ctx, m)
			},
		})
	}
	return runJobs(ctx, f.Brand(), f.cfg.Workers, jobs)
}

func (f *HyundaiFetcher) fetchModel(ctx context.Context, m HyundaiModel) ([]models.PriceRecord, error) {
	query := url.Values{
		"cityId":  {strconv.Itoa(f.cfg.CityID)},
		"modelId": {strconv.Itoa(m.ModelID)},
		"loc":     {"IN"},
		"lan":     {"en"},
	}
	body, err := f.client.Get(ctx, f.cfg.BaseURL, query, hyundaiHeaders)
	if err != nil {
		return nil, err
	}
	variants, err := decodeHyundaiVariants(body)
	if err != nil {
		return nil, err
	}

	var out []models.PriceRecord
	for _, v := range variants {
		price, ok := ValidPrice(v.Price)
		if !ok {
			continue
		}
		variant := CleanHyundaiVariant(m.Name, v.Variant)
		if v.Edition != "" {
			variant = strings.TrimSpace(variant + " " + v.Edition)
		}
		out = keep(out, models.PriceRecord{
			Brand:        models.BrandHyundai,
			Model:        m.Name,
			Fuel:         NormalizeFuel(v.FuelType),
			Transmission: NormalizeTransmission(v.Transmission),
			Variant:      variant,
			Price:        price,
		})
	}
	return out, nil
}

// decodeHyundaiVariants accepts both shapes the service returns: a bare array or an
// object carrying the array under modelPrice.
func decodeHyundaiVariants(body []byte) ([]hyundaiVariant, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var variants []hyundaiVariant
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &variants); err != nil {
			return nil, fmt.Errorf("failed to decode variant list: %w", err)
		}
	case '{':
		var wrapped struct {
			ModelPrice []hyundaiVariant `json:"modelPrice"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode modelPrice: %w", err)
		}
		variants = wrapped.ModelPrice
	default:
		return nil, fmt.Errorf("unexpected response shape")
	}
	return variants, nil
}

// CleanHyundaiVariant strips the model name and engine/transmission tokens
func CleanHyundaiVariant(model, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown"
	}
	v := strings.ReplaceAll(raw, "-", " ")
	return CleanVariant(v, model, "Hyundai")
}
