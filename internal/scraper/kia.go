package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"carpricewatch/internal/models"
)

// KiaConfig configures the Kia configurator API fetcher
type KiaConfig struct {
	BaseURL   string
	StateCode string
	CityCode  string
	Workers   int
}

// DefaultKiaConfig returns the Delhi (DL/N10) configuration
func DefaultKiaConfig() KiaConfig {
	return KiaConfig{
		BaseURL:   "https://www.kia.com/api/kia2_in",
		StateCode: "DL",
		CityCode:  "N10",
		Workers:   8,
	}
}

// KiaFetcher lists models from the configurator, then reads each model's variant list.
// Engine and transmission are not on the variant; they are looked up through codes
// embedded in the variant's OCN string.
type KiaFetcher struct {
	client *Client
	cfg    KiaConfig
}

// NewKiaFetcher creates a Kia fetcher
func NewKiaFetcher(client *Client, cfg KiaConfig) *KiaFetcher {
	return &KiaFetcher{client: client, cfg: cfg}
}

func (f *KiaFetcher) Brand() string { return models.BrandKia }

type kiaModelList struct {
	Data []struct {
		ModelName string `json:"modelName"`
		ModelCode string `json:"modelCode"`
	} `json:"data"`
}

type kiaVariantList struct {
	Data struct {
		Engines []struct {
			DmsEngineCode string `json:"dmsEngineCode"`
			EngineName    string `json:"engineName"`
			FuelType      string `json:"fuelType"`
		} `json:"engines"`
		Transmissions []struct {
			DmsTmdtCode string `json:"dmsTmdtCode"`
			TmName      string `json:"tmName"`
		} `json:"transmissions"`
		Variants []struct {
			VariantName string `json:"variantName"`
			DmsMcOcn    string `json:"dmsMcOcn"`
			Price       struct {
				M struct {
					IntraExsrPrice any `json:"intraExsrPrice"`
				} `json:"M"`
			} `json:"price"`
		} `json:"variants"`
	} `json:"data"`
}

var kiaHeaders = map[string]string{
	"Accept": "application/json, text/javascript, */*; q=0.01",
}

var (
	kiaPrefixRe = regexp.MustCompile(`(?i)^Kia\s+\S+\s+`)
	kiaEngineRe = regexp.MustCompile(`(?i)\b(?:Smartstream|CRDi\s?VGT?|T-?GDi|[DG]\d\.\d\w*|\d+\s?(?:iMT|MT|AT|DCT|IVT))\b`)
	kiaDashRe   = regexp.MustCompile(`\s*-\s*`)
)

// Fetch lists the models for the configured city and reads their variants in parallel
func (f *KiaFetcher) Fetch(ctx context.Context) FetchResult {
	form := url.Values{"stateCode": {f.cfg.StateCode}, "cityCode": {f.cfg.CityCode}}
	var list kiaModelList
	if err := f.client.PostFormJSON(ctx, f.cfg.BaseURL+"/configure.getModelList.do", form, kiaHeaders, &list); err != nil {
		return failedResult(f.Brand(), fmt.Errorf("model list: %w", err))
	}

	jobs := make([]job, 0, len(list.Data))
	for _, m := range list.Data {
		if m.ModelCode == "" {
			continue
		}
		jobs = append(jobs, job{
			label: m.ModelName,
			run: func(ctx context.Context) ([]models.PriceRecord, error) {
				return f.fetchModel(ctx, m.ModelCode, m.ModelName)
			},
		})
	}
	return runJobs(ctx, f.Brand(), f.cfg.Workers, jobs)
}

func (f *KiaFetcher) fetchModel(ctx context.Context, code, name string) ([]models.PriceRecord, error) {
	query := url.Values{
		"modelCode": {code},
		"stateCode": {f.cfg.StateCode},
		"cityCode":  {f.cfg.CityCode},
	}
	var list kiaVariantList
	if err := f.client.GetJSON(ctx, f.cfg.BaseURL+"/configure.getVrntList.do", query, kiaHeaders, &list); err != nil {
		return nil, err
	}

	fuels := make(map[string]string, len(list.Data.Engines))
	for _, e := range list.Data.Engines {
		fuels[e.DmsEngineCode] = e.FuelType
	}
	transmissions := make(map[string]string, len(list.Data.Transmissions))
	for _, t := range list.Data.Transmissions {
		transmissions[t.DmsTmdtCode] = t.TmName
	}

	var out []models.PriceRecord
	for _, v := range list.Data.Variants {
		price, ok := ValidPrice(v.Price.M.IntraExsrPrice)
		if !ok {
			continue
		}
		engineKey, transKey := kiaOCNKeys(v.DmsMcOcn)
		out = keep(out, models.PriceRecord{
			Brand:        models.BrandKia,
			Model:        name,
			Fuel:         NormalizeFuel(fuels[engineKey]),
			Transmission: NormalizeTransmission(transmissions[transKey]),
			Variant:      CleanKiaVariant(name, v.VariantName),
			Price:        price,
		})
	}
	return out, nil
}

// kiaOCNKeys splits the model-config code (second to last OCN field) into the engine
// lookup key (characters 4..n-1) and the transmission key (last character)
func kiaOCNKeys(ocn string) (engine, transmission string) {
	fields := strings.Fields(ocn)
	if len(fields) < 2 {
		return "", ""
	}
	code := fields[len(fields)-2]
	if len(code) >= 1 {
		transmission = code[len(code)-1:]
	}
	if len(code) >= 6 {
		engine = code[4 : len(code)-1]
	}
	return engine, transmission
}

// CleanKiaVariant strips the "Kia <Model>" prefix, engine codes and anything after "|"
func CleanKiaVariant(model, raw string) string {
	v := kiaPrefixRe.ReplaceAllString(raw, "")
	v = kiaEngineRe.ReplaceAllString(v, "")
	v = kiaDashRe.ReplaceAllString(v, " ")
	v, _, _ = strings.Cut(v, "|")
	return CleanVariant(v, model, "Kia")
}
