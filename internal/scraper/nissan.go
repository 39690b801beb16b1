package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"carpricewatch/internal/models"
)

// NissanConfig configures the Nissan price-list page fetcher
type NissanConfig struct {
	PageURL string
}

// DefaultNissanConfig returns the public price-list page
func DefaultNissanConfig() NissanConfig {
	return NissanConfig{PageURL: "https://www.nissan.in/prices-list.html"}
}

// NissanFetcher parses the price tables on the Nissan price-list page. Each table is
// attributed to the model named by the heading that precedes it.
type NissanFetcher struct {
	renderer PageRenderer
	cfg      NissanConfig
}

// NewNissanFetcher creates a Nissan fetcher. renderer is usually an HTTPRenderer;
// a BrowserRenderer is used when the page needs script to fill its tables.
func NewNissanFetcher(renderer PageRenderer, cfg NissanConfig) *NissanFetcher {
	return &NissanFetcher{renderer: renderer, cfg: cfg}
}

func (f *NissanFetcher) Brand() string { return models.BrandNissan }

const unknownNissanModel = "Unknown Model"

var (
	nissanPrefixRe  = regexp.MustCompile(`(?i)^(?:New\s+)?Nissan\s+`)
	nissanMentionRe = regexp.MustCompile(`(?i)\bNissan\b`)
	nissanTransRe   = regexp.MustCompile(`(?i)\b(?:MT|CVT|AT|Manual|Automatic|EZ-SHIFT|X-TRONIC)\b`)
)

// Fetch renders the page once and walks it for model tables
func (f *NissanFetcher) Fetch(ctx context.Context) FetchResult {
	return runJobs(ctx, f.Brand(), 1, []job{{
		label: "price list",
		run: func(ctx context.Context) ([]models.PriceRecord, error) {
			html, err := f.renderer.Render(ctx, f.cfg.PageURL)
			if err != nil {
				return nil, err
			}
			return ParseNissanPriceList(html)
		},
	}})
}

// ParseNissanPriceList extracts one record per two-cell table row
func ParseNissanPriceList(html string) ([]models.PriceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse price list: %w", err)
	}

	var (
		out     []models.PriceRecord
		heading string
		mention string
		tables  int
	)
	// Matches come back in document order, so the last heading seen owns the table.
	doc.Find("h2, h3, table").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "table" {
			text := strings.Join(strings.Fields(s.Text()), " ")
			switch {
			case text == "":
			case goquery.NodeName(s) == "h2" && s.HasClass("heading"):
				heading = text
			case nissanMentionRe.MatchString(text):
				mention = text
			}
			return
		}

		tables++
		model := nissanModelName(heading, mention)
		s.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() != 2 {
				return
			}
			variantRaw := cellText(cells.Eq(0))
			price, ok := ValidPrice(cellText(cells.Eq(1)))
			if !ok {
				return
			}
			out = keep(out, models.PriceRecord{
				Brand:        models.BrandNissan,
				Model:        model,
				Fuel:         nissanFuel(variantRaw),
				Transmission: NormalizeTransmission(variantRaw),
				Variant:      CleanNissanVariant(model, variantRaw),
				Price:        price,
			})
		})
	})
	if tables == 0 {
		return nil, fmt.Errorf("no price tables on page")
	}
	return out, nil
}

func nissanModelName(heading, mention string) string {
	name := heading
	if name == "" {
		name = mention
	}
	name = strings.TrimSpace(nissanPrefixRe.ReplaceAllString(name, ""))
	if name == "" {
		return unknownNissanModel
	}
	return name
}

// The price list only carries petrol cars unless the label says otherwise
func nissanFuel(variant string) string {
	if fuel := NormalizeFuel(variant); fuel != "" {
		return fuel
	}
	return models.FuelPetrol
}

// CleanNissanVariant removes the model, the "New Nissan" prefix and gearbox words
func CleanNissanVariant(model, raw string) string {
	v := nissanPrefixRe.ReplaceAllString(strings.TrimSpace(raw), "")
	v = nissanTransRe.ReplaceAllString(v, " ")
	return CleanVariant(v, model, "Nissan")
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(strings.ReplaceAll(s.Text(), "\u00a0", " "))
}
