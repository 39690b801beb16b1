package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"carpricewatch/internal/models"
)

// MahindraModel is one product on the Mahindra storefront
type MahindraModel struct {
	Name      string
	PID       string
	ColorCode string
}

// MahindraConfig configures the Mahindra storefront fetcher
type MahindraConfig struct {
	BaseURL string
	Models  []MahindraModel
	Workers int
}

// DefaultMahindraConfig returns the storefront product-variation configuration
func DefaultMahindraConfig() MahindraConfig {
	return MahindraConfig{
		BaseURL: "https://auto.mahindra.com/on/demandware.store/Sites-amc-Site/en_IN/Product-Variation",
		Models: []MahindraModel{
			{Name: "Thar ROXX", PID: "TH5D", ColorCode: "A3DPFRSMBK"},
			{Name: "XUV 3XO", PID: "X3XO", ColorCode: "A3CTNYLOBK"},
			{Name: "XUV700", PID: "X700M063917795233", ColorCode: "A3XXXXX"},
			{Name: "Scorpio-N", PID: "SCN", ColorCode: "A3XXXXX"},
			{Name: "Scorpio Classic", PID: "SCRC", ColorCode: "A3XXXXX"},
			{Name: "Bolero Neo", PID: "NEO", ColorCode: "A3XXXXX"},
			{Name: "Bolero", PID: "BOL", ColorCode: "A3XXXXX"},
			{Name: "XUV400", PID: "X400", ColorCode: "A3XXXXX"},
			{Name: "Marazzo", PID: "MRZO", ColorCode: "A3XXXXX"},
			{Name: "Veero", PID: "VEERO", ColorCode: "A3XXXXX"},
		},
		Workers: 8,
	}
}

// MahindraFetcher reads the variant cards the storefront returns as HTML fragments
// inside its product-variation JSON
type MahindraFetcher struct {
	client *Client
	cfg    MahindraConfig
}

// NewMahindraFetcher creates a Mahindra fetcher
func NewMahindraFetcher(client *Client, cfg MahindraConfig) *MahindraFetcher {
	return &MahindraFetcher{client: client, cfg: cfg}
}

func (f *MahindraFetcher) Brand() string { return models.BrandMahindra }

type mahindraResponse struct {
	Product struct {
		VariantCardHTML []string `json:"variantCardHtml"`
	} `json:"product"`
}

var (
	mahindraScriptPriceRe = regexp.MustCompile(`(?i)["']?(?:exShowroomPrice|approxPrice|price)["']?\s*[:=]\s*["']?(₹?\s*[\d.,]+\s*(?:lakhs?|l|cr)?)`)
	mahindraDieselRe      = regexp.MustCompile(`(?i)\bD\b|\bdiesel\b`)
	mahindraPetrolRe      = regexp.MustCompile(`(?i)\bP\b|\bpetrol\b`)
	mahindraFuelLetterRe  = regexp.MustCompile(`\b[PD]\b`)
)

// Fetch requests each model's product variation document in parallel
func (f *MahindraFetcher) Fetch(ctx context.Context) FetchResult {
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

func (f *MahindraFetcher) fetchModel(ctx context.Context, m MahindraModel) ([]models.PriceRecord, error) {
	query := url.Values{
		fmt.Sprintf("dwvar_%s_colorCode", m.PID): {m.ColorCode},
		"pid":      {m.PID},
		"quantity": {"1"},
	}
	var resp mahindraResponse
	if err := f.client.GetJSON(ctx, f.cfg.BaseURL, query, nil, &resp); err != nil {
		return nil, err
	}

	var out []models.PriceRecord
	for _, snippet := range resp.Product.VariantCardHTML {
		name, price, ok := parseMahindraCard(snippet)
		if !ok {
			continue
		}
		out = keep(out, models.PriceRecord{
			Brand:        models.BrandMahindra,
			Model:        m.Name,
			Fuel:         mahindraFuel(name),
			Transmission: NormalizeTransmission(name),
			Variant:      CleanMahindraVariant(m.Name, name),
			Price:        price,
		})
	}
	return out, nil
}

// parseMahindraCard pulls the variant name and price out of one card fragment.
// The price normally sits in span.approx-price; some cards only carry it inside an
// inline script, which is searched as a fallback.
func parseMahindraCard(snippet string) (string, int64, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return "", 0, false
	}

	input := doc.Find("input.js-radio").First()
	name := strings.TrimSpace(input.AttrOr("data-variantname", ""))
	if name == "" {
		name = strings.TrimSpace(doc.Find("[data-variantname]").First().AttrOr("data-variantname", ""))
	}
	if name == "" {
		return "", 0, false
	}

	if price, ok := ValidPrice(strings.TrimSpace(doc.Find("span.approx-price").First().Text())); ok {
		return name, price, true
	}

	var price int64
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := mahindraScriptPriceRe.FindStringSubmatch(s.Text()); m != nil {
			if p, ok := ValidPrice(m[1]); ok {
				price = p
				return false
			}
		}
		return true
	})
	if price == 0 {
		if p, ok := ValidPrice(input.AttrOr("data-price", "")); ok {
			price = p
		}
	}
	return name, price, price > 0
}

func mahindraFuel(name string) string {
	switch {
	case mahindraDieselRe.MatchString(name):
		return models.FuelDiesel
	case mahindraPetrolRe.MatchString(name):
		return models.FuelPetrol
	}
	return NormalizeFuel(name)
}

// CleanMahindraVariant drops the model name, fuel words and the single-letter P/D markers
func CleanMahindraVariant(model, raw string) string {
	v := mahindraFuelLetterRe.ReplaceAllString(raw, " ")
	return CleanVariant(v, model, "Mahindra")
}
