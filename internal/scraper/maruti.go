package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"carpricewatch/internal/models"
)

// MarutiChannel is one of the two Maruti Suzuki retail channels (Arena and Nexa).
// Both expose a persisted GraphQL variant list and the same pricing service.
type MarutiChannel struct {
	Name         string
	VariantsURL  string // format string taking the model code
	PricesURL    string
	ChannelCode  string
	ColorType    string // only price rows with this colour type count; empty accepts all
	PriceByModel bool   // send modelCodes to the pricing service
	Models       map[string]string
}

// MarutiConfig configures the Maruti fetcher
type MarutiConfig struct {
	CityCode       string
	PlaceholderURL string
	Channels       []MarutiChannel
	Workers        int
}

// DefaultMarutiConfig returns the Delhi (city code 08) configuration for both channels
func DefaultMarutiConfig() MarutiConfig {
	return MarutiConfig{
		CityCode:       "08",
		PlaceholderURL: "https://www.marutisuzuki.com/placeholders.json",
		Channels: []MarutiChannel{
			{
				Name:         "Arena",
				VariantsURL:  "https://www.marutisuzuki.com/graphql/execute.json/msil-platform/arenaVariantList;modelCd=%s",
				PricesURL:    "https://www.marutisuzuki.com/pricing/v2/common/pricing/ex-showroom-detail",
				ChannelCode:  "NRM,NRC",
				ColorType:    "M",
				PriceByModel: true,
				Models: map[string]string{
					"DE": "Dzire", "AT": "Alto K10", "VZ": "Brezza", "SI": "Swift", "CL": "Celerio",
					"WA": "WagonR", "VR": "Eeco", "ER": "Ertiga", "SP": "S-Presso", "EC": "Victoris",
				},
			},
			{
				Name:        "Nexa",
				VariantsURL: "https://www.nexaexperience.com/graphql/execute.json/msil-platform/VariantFeaturesList;modelCd=%s;locale=en;",
				PricesURL:   "https://www.nexaexperience.com/pricing/v2/common/pricing/ex-showroom-detail",
				ChannelCode: "EXC",
				Models: map[string]string{
					"BZ": "Baleno", "CI": "Ciaz", "FR": "Fronx", "GV": "Grand Vitara",
					"IG": "Ignis", "IN": "Invicto", "JM": "Jimny", "XL": "XL6",
				},
			},
		},
		Workers: defaultModelWorkers,
	}
}

// MarutiFetcher covers both Maruti channels, one request pair per (channel, model)
type MarutiFetcher struct {
	client *Client
	cfg    MarutiConfig
}

// NewMarutiFetcher creates a Maruti fetcher
func NewMarutiFetcher(client *Client, cfg MarutiConfig) *MarutiFetcher {
	return &MarutiFetcher{client: client, cfg: cfg}
}

func (f *MarutiFetcher) Brand() string { return models.BrandMaruti }

type marutiVariant struct {
	VariantCd    string `json:"variantCd"`
	VariantName  string `json:"variantName"`
	FuelType     string `json:"fuelType"`
	Transmission string `json:"transmission"`
}

// Arena answers with carVariantList, Nexa with carModelList; one struct reads both.
type marutiVariantResponse struct {
	Data struct {
		CarVariantList struct {
			Items []marutiVariant `json:"items"`
		} `json:"carVariantList"`
		CarModelList struct {
			Items []struct {
				Variants []marutiVariant `json:"variants"`
			} `json:"items"`
		} `json:"carModelList"`
	} `json:"data"`
}

func (r marutiVariantResponse) variants() []marutiVariant {
	out := append([]marutiVariant(nil), r.Data.CarVariantList.Items...)
	for _, m := range r.Data.CarModelList.Items {
		out = append(out, m.Variants...)
	}
	return out
}

type marutiPriceResponse struct {
	Data struct {
		Models []struct {
			ExShowroomDetailResponseDTOList []struct {
				VariantCd       string  `json:"variantCd"`
				ExShowroomPrice float64 `json:"exShowroomPrice"`
				ColorType       string  `json:"colorType"`
			} `json:"exShowroomDetailResponseDTOList"`
		} `json:"models"`
	} `json:"data"`
}

type marutiPlaceholders struct {
	Data []struct {
		Key  string `json:"Key"`
		Text string `json:"Text"`
	} `json:"data"`
}

// Fetch loads the placeholder price fallback once, then fans out per channel and model
func (f *MarutiFetcher) Fetch(ctx context.Context) FetchResult {
	fallback := f.placeholderPrices(ctx)

	var jobs []job
	for _, ch := range f.cfg.Channels {
		for _, code := range sortedKeys(ch.Models) {
			name := ch.Models[code]
			jobs = append(jobs, job{
				label: fmt.Sprintf("%s %s (%s)", ch.Name, name, code),
				run: func(ctx context.Context) ([]models.PriceRecord, error) {
					return f.fetchModel(ctx, ch, code, name, fallback)
				},
			})
		}
	}
	return runJobs(ctx, f.Brand(), f.cfg.Workers, jobs)
}

func (f *MarutiFetcher) fetchModel(ctx context.Context, ch MarutiChannel, code, name string, fallback map[string]int64) ([]models.PriceRecord, error) {
	var vr marutiVariantResponse
	if err := f.client.GetJSON(ctx, fmt.Sprintf(ch.VariantsURL, code), nil, nil, &vr); err != nil {
		return nil, fmt.Errorf("variant list: %w", err)
	}
	variants := vr.variants()
	if len(variants) == 0 {
		return nil, nil
	}

	query := url.Values{
		"forCode":             {f.cfg.CityCode},
		"channel":             {ch.ChannelCode},
		"variantInfoRequired": {"true"},
	}
	if ch.PriceByModel {
		query.Set("modelCodes", code)
	}
	var pr marutiPriceResponse
	if err := f.client.GetJSON(ctx, ch.PricesURL, query, nil, &pr); err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}

	prices := make(map[string]int64)
	for _, m := range pr.Data.Models {
		for _, v := range m.ExShowroomDetailResponseDTOList {
			if ch.ColorType != "" && v.ColorType != ch.ColorType {
				continue
			}
			if p, ok := ValidPrice(v.ExShowroomPrice); ok {
				prices[v.VariantCd] = p
			}
		}
	}

	var out []models.PriceRecord
	for _, v := range variants {
		price, ok := prices[v.VariantCd]
		if !ok {
			price = fallback[v.VariantCd]
		}
		out = keep(out, models.PriceRecord{
			Brand:        models.BrandMaruti,
			Model:        name,
			Fuel:         NormalizeFuel(v.FuelType),
			Transmission: NormalizeTransmission(v.Transmission),
			Variant:      CleanMarutiVariant(name, v.VariantName),
			Price:        price,
		})
	}
	return out, nil
}

// placeholderPrices reads the "VARIANT:PRICE,..." list the site ships for its price
// widgets. It is only a fallback, so failures are logged and ignored.
func (f *MarutiFetcher) placeholderPrices(ctx context.Context) map[string]int64 {
	out := make(map[string]int64)
	if f.cfg.PlaceholderURL == "" {
		return out
	}
	var ph marutiPlaceholders
	if err := f.client.GetJSON(ctx, f.cfg.PlaceholderURL, nil, nil, &ph); err != nil {
		log.Printf("⚠️  Maruti placeholder prices unavailable: %v", err)
		return out
	}
	for _, d := range ph.Data {
		if !strings.Contains(strings.ToLower(d.Key), "prices") {
			continue
		}
		for _, item := range strings.Split(d.Text, ",") {
			code, raw, found := strings.Cut(item, ":")
			if !found {
				continue
			}
			if p, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && p > 0 {
				out[strings.TrimSpace(code)] = p
			}
		}
		break
	}
	return out
}

// CleanMarutiVariant normalizes labels like "Swift ZXi Plus AGS" to "ZXi Plus"
func CleanMarutiVariant(model, raw string) string {
	return CleanVariant(strings.ReplaceAll(raw, "AGS", "AMT"), model, "Maruti", "Suzuki")
}
