package scraper

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"carpricewatch/internal/models"
)

// ErrMissingAPIKey is reported when the MG variants API key is not configured
var ErrMissingAPIKey = errors.New("MG API key not configured")

// MGConfig configures the MG variants API fetcher
type MGConfig struct {
	BaseURL string
	APIKey  string
	State   string
	City    string
}

// DefaultMGConfig returns the Delhi configuration. The API key comes from the environment.
func DefaultMGConfig() MGConfig {
	return MGConfig{
		BaseURL: "https://eeysubngbk.execute-api.ap-south-1.amazonaws.com/prod/api/variants",
		State:   "Delhi",
		City:    "Delhi",
	}
}

// MGFetcher reads the whole MG line-up from a single variants document
type MGFetcher struct {
	client *Client
	cfg    MGConfig
}

// NewMGFetcher creates an MG fetcher
func NewMGFetcher(client *Client, cfg MGConfig) *MGFetcher {
	return &MGFetcher{client: client, cfg: cfg}
}

func (f *MGFetcher) Brand() string { return models.BrandMG }

type mgModel struct {
	ModelLine    string `json:"modelLine"`
	ModelLineAlt string `json:"model_line"`
	Variants     []struct {
		ModelText   string `json:"model_text1"`
		FuelType    string `json:"fuel_type"`
		VehicleType string `json:"vehicle_type"`
		Pricing     []struct {
			State  string `json:"State"`
			Cities []struct {
				City  string `json:"City"`
				Price any    `json:"price"`
			} `json:"cities"`
		} `json:"pricing"`
	} `json:"variants"`
}

var mgFuelCodes = map[string]string{
	"01": models.FuelDiesel,
	"02": models.FuelPetrol,
	"05": models.FuelEV,
}

var (
	mgNamesRe    = regexp.MustCompile(`(?i)\b(?:MG|Astor|Hector|Gloster|Comet|ZS|Windsor|Hectorplus6|Hectorplus7)\b`)
	mgSeatCodeRe = regexp.MustCompile(`(?i)\b\d+[A-Z]*\b`)
)

// Fetch downloads the variants document and keeps the configured city's price
func (f *MGFetcher) Fetch(ctx context.Context) FetchResult {
	if f.cfg.APIKey == "" {
		return failedResult(f.Brand(), ErrMissingAPIKey)
	}

	return runJobs(ctx, f.Brand(), 1, []job{{label: "variants", run: f.fetchAll}})
}

func (f *MGFetcher) fetchAll(ctx context.Context) ([]models.PriceRecord, error) {
	headers := map[string]string{
		"Accept":    "application/json, text/javascript, */*; q=0.01",
		"Origin":    "https://www.mgmotor.co.in",
		"Referer":   "https://www.mgmotor.co.in/",
		"x-api-key": f.cfg.APIKey,
	}
	var lineup []mgModel
	if err := f.client.GetJSON(ctx, f.cfg.BaseURL, nil, headers, &lineup); err != nil {
		return nil, err
	}

	var out []models.PriceRecord
	for _, m := range lineup {
		model := strings.TrimSpace(m.ModelLine)
		if model == "" {
			model = strings.TrimSpace(m.ModelLineAlt)
		}
		for _, v := range m.Variants {
			var price int64
			for _, p := range v.Pricing {
				if p.State != f.cfg.State {
					continue
				}
				for _, c := range p.Cities {
					if c.City != f.cfg.City {
						continue
					}
					if parsed, ok := ValidPrice(c.Price); ok {
						price = parsed
						break
					}
				}
			}
			out = keep(out, models.PriceRecord{
				Brand:        models.BrandMG,
				Model:        model,
				Fuel:         mgFuelCodes[strings.TrimSpace(v.FuelType)],
				Transmission: NormalizeTransmission(v.VehicleType),
				Variant:      CleanMGVariant(model, v.ModelText),
				Price:        price,
			})
		}
	}
	return out, nil
}

// CleanMGVariant removes model-line names, fuel and transmission words and seat codes
// such as 6S/7S, and title-cases what is left
func CleanMGVariant(model, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	v := mgNamesRe.ReplaceAllString(raw, " ")
	v = fuelWordsRe.ReplaceAllString(v, " ")
	v = transWordsRe.ReplaceAllString(v, " ")
	v = mgSeatCodeRe.ReplaceAllString(v, " ")
	v = strings.ReplaceAll(v, "-", " ")
	// Casers keep state, so each call gets its own
	return cases.Title(language.English).String(CleanVariant(v, model))
}
