package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"carpricewatch/internal/cache"
	"carpricewatch/internal/models"
)

// TataModel is one model line on the Tata price pages
type TataModel struct {
	Name            string
	ModelID         string
	ParentProductID string
	BaseURL         string // e.g. https://cars.tatamotors.com/nexon/ice
}

// TataConfig configures the Tata price-filter API fetcher
type TataConfig struct {
	Models            []TataModel
	CityID            string
	VehicleCategory   string
	PriceRange        []string
	DefaultEditions   []string
	FuelCodes         map[string]string
	TransmissionCodes map[string]string
	Workers           int
}

// DefaultTataConfig returns the Delhi configuration for the current Tata line-up
func DefaultTataConfig() TataConfig {
	const site = "https://cars.tatamotors.com"
	return TataConfig{
		Models: []TataModel{
			{Name: "Nexon", ModelID: "1-TGW7UPH", ParentProductID: "1-S3YJYTJ", BaseURL: site + "/nexon/ice"},
			{Name: "Tiago", ModelID: "1-FFSXOSX", ParentProductID: "1-DR4I0XM", BaseURL: site + "/tiago/ice"},
			{Name: "Altroz", ModelID: "1-1NR5UKP5", ParentProductID: "1-1MJPLCOH", BaseURL: site + "/altroz/ice"},
			{Name: "Harrier", ModelID: "5-20YZDK9O", ParentProductID: "1-12DWLRE2", BaseURL: site + "/harrier/ice"},
			{Name: "Curvv", ModelID: "1-1A9U7P1Z", ParentProductID: "1-1U4U0U0N", BaseURL: site + "/curvv/ice"},
			{Name: "Safari", ModelID: "5-20YWEGYC", ParentProductID: "1-12DXM1K4", BaseURL: site + "/safari/ice"},
			{Name: "Punch", ModelID: "1-11Z2ID06", ParentProductID: "1-13T1XGN8", BaseURL: site + "/punch/ice"},
			{Name: "Tigor", ModelID: "1-13LP1VGC", ParentProductID: "1-13LP1VGE", BaseURL: site + "/tigor/ice"},
		},
		CityID:          "India-DL-DELHI",
		VehicleCategory: "TMPC",
		PriceRange:      []string{"₹5L", "₹30L"},
		DefaultEditions: []string{"standard"},
		FuelCodes: map[string]string{
			"1-D1MGNW9": models.FuelCNG,
			"1-ID-1738": models.FuelDiesel,
			"1-ID-267":  models.FuelPetrol,
			"1-ID-268":  models.FuelCNG,
		},
		TransmissionCodes: map[string]string{
			"5-251EY13B": models.TransmissionManual,
			"5-251EY13H": models.TransmissionAutomatic, // AMT
			"5-251EY13J": models.TransmissionAutomatic,
			"DCA":        models.TransmissionAutomatic,
			"DCT":        models.TransmissionAutomatic,
		},
		Workers: defaultModelWorkers,
	}
}

// TataFetcher queries the price-filter JSON endpoints behind the Tata price pages.
// Filter options are discovered per model and every edition x fuel x transmission
// combination is requested separately.
type TataFetcher struct {
	client  *Client
	cfg     TataConfig
	filters *cache.FilterCache
}

// NewTataFetcher creates a Tata fetcher. filters may be nil to always re-query options.
func NewTataFetcher(client *Client, cfg TataConfig, filters *cache.FilterCache) *TataFetcher {
	if filters == nil {
		filters = cache.NewFilterCache("", 0)
	}
	return &TataFetcher{client: client, cfg: cfg, filters: filters}
}

func (f *TataFetcher) Brand() string { return models.BrandTata }

type tataFilterResponse struct {
	Results struct {
		FilterOptionsList []struct {
			FilterType   string `json:"filterType"`
			FilterOption []struct {
				OptionID    string `json:"optionId"`
				OptionLabel string `json:"optionLabel"`
			} `json:"filterOption"`
		} `json:"filterOptionsList"`
	} `json:"results"`
}

type tataPriceResponse struct {
	Results struct {
		VariantPriceFeatures []struct {
			VariantLabel string `json:"variantLabel"`
			PriceDetails struct {
				OriginalPrice any `json:"originalPrice"`
			} `json:"priceDetails"`
		} `json:"variantPriceFeatures"`
	} `json:"results"`
}

type tataFilter struct {
	Type   string   `json:"filterType"`
	Values []string `json:"values"`
}

// Fetch resolves filter options for every model, then fans out one request per combination
func (f *TataFetcher) Fetch(ctx context.Context) FetchResult {
	if n := f.filters.Len(); n > 0 {
		log.Printf("📦 Tata: filter cache holds %d models", n)
	}
	options := make([]cache.FilterOptions, len(f.cfg.Models))
	errs := make([]error, len(f.cfg.Models))

	var g errgroup.Group
	g.SetLimit(workersOr(f.cfg.Workers))
	for i, m := range f.cfg.Models {
		g.Go(func() error {
			options[i], errs[i] = f.filterOptions(ctx, m)
			return nil
		})
	}
	g.Wait()

	enumeration := FetchResult{Brand: f.Brand()}
	var jobs []job
	for i, m := range f.cfg.Models {
		if errs[i] != nil {
			enumeration = mergeResults(enumeration, failedResult(f.Brand(), fmt.Errorf("%s filter options: %w", m.Name, errs[i])))
			continue
		}
		jobs = append(jobs, f.comboJobs(m, options[i])...)
	}

	return mergeResults(enumeration, runJobs(ctx, f.Brand(), f.cfg.Workers, jobs))
}

func (f *TataFetcher) headers(m TataModel) map[string]string {
	return map[string]string{
		"Accept":           "*/*",
		"Origin":           "https://cars.tatamotors.com",
		"Referer":          m.BaseURL + "/price.html",
		"X-Requested-With": "XMLHttpRequest",
		"Cookie":           "at_check=true",
	}
}

func (f *TataFetcher) filterOptions(ctx context.Context, m TataModel) (cache.FilterOptions, error) {
	if opts, ok := f.filters.Get(m.Name); ok {
		if age, ok := f.filters.Age(m.Name); ok {
			log.Printf("📦 Tata %s: cached filter options (%v old)", m.Name, age.Round(time.Second))
		}
		return opts, nil
	}

	form := url.Values{
		"vehicleCategory": {f.cfg.VehicleCategory},
		"modelId":         {m.ModelID},
		"parentProductId": {m.ParentProductID},
		"cityId":          {f.cfg.CityID},
	}
	var resp tataFilterResponse
	if err := f.client.PostFormJSON(ctx, m.BaseURL+"/price.getpricefilteroptions.json", form, f.headers(m), &resp); err != nil {
		return cache.FilterOptions{}, err
	}

	opts := cache.FilterOptions{
		Fuels:         map[string]string{},
		Transmissions: map[string]string{},
		Editions:      map[string]string{},
	}
	for _, group := range resp.Results.FilterOptionsList {
		var target map[string]string
		switch group.FilterType {
		case "fuel_type":
			target = opts.Fuels
		case "transmission_type":
			target = opts.Transmissions
		case "edition":
			target = opts.Editions
		default:
			continue
		}
		for _, o := range group.FilterOption {
			if o.OptionID != "" {
				target[o.OptionID] = o.OptionLabel
			}
		}
	}
	if len(opts.Fuels) == 0 || len(opts.Transmissions) == 0 {
		return opts, fmt.Errorf("no fuel or transmission filters offered")
	}

	if err := f.filters.Put(m.Name, opts); err != nil {
		log.Printf("⚠️  Could not persist %s filter options: %v", m.Name, err)
	}
	return opts, nil
}

func (f *TataFetcher) comboJobs(m TataModel, opts cache.FilterOptions) []job {
	editions := sortedKeys(opts.Editions)
	if len(editions) == 0 {
		editions = f.cfg.DefaultEditions
	}
	var jobs []job
	for _, edition := range editions {
		for _, fuel := range sortedKeys(opts.Fuels) {
			for _, trans := range sortedKeys(opts.Transmissions) {
				fuelName := f.fuelName(fuel, opts.Fuels[fuel])
				transName := f.transmissionName(trans, opts.Transmissions[trans])
				jobs = append(jobs, job{
					label: fmt.Sprintf("%s %s/%s/%s", m.Name, edition, fuel, trans),
					run: func(ctx context.Context) ([]models.PriceRecord, error) {
						return f.fetchCombo(ctx, m, edition, fuel, trans, fuelName, transName)
					},
				})
			}
		}
	}
	return jobs
}

func (f *TataFetcher) fetchCombo(ctx context.Context, m TataModel, edition, fuel, trans, fuelName, transName string) ([]models.PriceRecord, error) {
	payload := map[string]any{
		"vehicleCategory": f.cfg.VehicleCategory,
		"modelId":         m.ModelID,
		"parentProductId": m.ParentProductID,
		"cityId":          f.cfg.CityID,
		"filtersSelected": []tataFilter{
			{Type: "fuel_type", Values: []string{fuel}},
			{Type: "transmission_type", Values: []string{trans}},
			{Type: "edition", Values: []string{edition}},
			{Type: "price", Values: f.cfg.PriceRange},
		},
	}
	var resp tataPriceResponse
	if err := f.client.PostJSON(ctx, m.BaseURL+"/price.getpricefilteredresult.json", payload, f.headers(m), &resp); err != nil {
		return nil, err
	}

	var out []models.PriceRecord
	for _, v := range resp.Results.VariantPriceFeatures {
		price, ok := ValidPrice(v.PriceDetails.OriginalPrice)
		if !ok {
			continue
		}
		out = keep(out, models.PriceRecord{
			Brand:        models.BrandTata,
			Model:        m.Name,
			Fuel:         fuelName,
			Transmission: transName,
			Variant:      CleanTataVariant(m.Name, v.VariantLabel),
			Price:        price,
		})
	}
	return out, nil
}

func (f *TataFetcher) fuelName(id, label string) string {
	if v, ok := f.cfg.FuelCodes[id]; ok {
		return v
	}
	return NormalizeFuel(label)
}

func (f *TataFetcher) transmissionName(id, label string) string {
	if v, ok := f.cfg.TransmissionCodes[id]; ok {
		return v
	}
	return NormalizeTransmission(label)
}

var tataBifuelRe = regexp.MustCompile(`(?i)\bbi[- ]?fuel\b.*$`)

// CleanTataVariant turns "NEXON Creative+ PS 1.2 Petrol 5MT" style labels into the trim name
func CleanTataVariant(model, raw string) string {
	v := strings.ReplaceAll(raw, "-", " ")
	v = tataBifuelRe.ReplaceAllString(v, "")
	return CleanVariant(v, model, "Tata", "Standard", "New")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func workersOr(n int) int {
	if n <= 0 {
		return defaultModelWorkers
	}
	return n
}
