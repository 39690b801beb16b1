package models

import "strings"

// Brands tracked by the scrapers
const (
	BrandMaruti   = "Maruti"
	BrandTata     = "Tata"
	BrandHyundai  = "Hyundai"
	BrandMahindra = "Mahindra"
	BrandToyota   = "Toyota"
	BrandKia      = "Kia"
	BrandMG       = "MG"
	BrandNissan   = "Nissan"
)

// Fuel vocabulary. An empty string means the source did not say.
const (
	FuelPetrol = "Petrol"
	FuelDiesel = "Diesel"
	FuelCNG    = "CNG"
	FuelHybrid = "Hybrid"
	FuelEV     = "EV"
)

// Transmission vocabulary. An empty string means the source did not say.
const (
	TransmissionManual    = "Manual"
	TransmissionAutomatic = "Automatic"
	TransmissionIMT       = "iMT"
)

// Source tags a stored row with how it entered the table
type Source string

const (
	SourceScraped Source = "scraped"
	SourceManual  Source = "manual"
)

// TimestampLayout is fixed width so that text ordering in SQLite matches time ordering
const TimestampLayout = "2006-01-02T15:04:05.000000"

// RupeesPerLakh converts the lakh unit used on price labels into rupees
const RupeesPerLakh = 100000

// PriceRecord is one normalized variant price
type PriceRecord struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Fuel         string `json:"fuel"`
	Transmission string `json:"transmission"`
	Variant      string `json:"variant"`
	Price        int64  `json:"price"` // rupees
}

// StoredPriceRow is a PriceRecord as persisted in the prices table
type StoredPriceRow struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Source    Source `json:"source"`
	PriceRecord
}

// PriceLakhs returns the price in lakhs rounded to two decimals, as the dashboard shows it
func (r PriceRecord) PriceLakhs() float64 {
	return float64(int64(float64(r.Price)/float64(RupeesPerLakh)*100+0.5)) / 100
}

// AllBrands lists the fixed brand set in display order
func AllBrands() []string {
	return []string{BrandMaruti, BrandTata, BrandHyundai, BrandMahindra, BrandToyota, BrandKia, BrandMG, BrandNissan}
}

// CanonicalBrand maps a case-insensitive brand name onto the fixed set
func CanonicalBrand(name string) (string, bool) {
	for _, b := range AllBrands() {
		if strings.EqualFold(strings.TrimSpace(name), b) {
			return b, true
		}
	}
	return "", false
}

// IsFuel reports whether v belongs to the fuel vocabulary
func IsFuel(v string) bool {
	switch v {
	case "", FuelPetrol, FuelDiesel, FuelCNG, FuelHybrid, FuelEV:
		return true
	}
	return false
}

// IsTransmission reports whether v belongs to the transmission vocabulary
func IsTransmission(v string) bool {
	switch v {
	case "", TransmissionManual, TransmissionAutomatic, TransmissionIMT:
		return true
	}
	return false
}

// ManualEntryRequest is the payload for adding a manual price row.
// Exactly one of PriceRupees or PriceLakhs should be set.
type ManualEntryRequest struct {
	Brand        string  `json:"brand" binding:"required"`
	Model        string  `json:"model" binding:"required"`
	Variant      string  `json:"variant" binding:"required"`
	Fuel         string  `json:"fuel"`
	Transmission string  `json:"transmission"`
	PriceRupees  int64   `json:"priceRupees,omitempty" binding:"min=0"`
	PriceLakhs   float64 `json:"priceLakhs,omitempty" binding:"min=0"`
	Timestamp    string  `json:"timestamp,omitempty"` // RFC3339 or TimestampLayout; empty means now
}

// BrandSummary reports how a single brand fetch went
type BrandSummary struct {
	Brand    string `json:"brand"`
	Status   string `json:"status"`
	Records  int    `json:"records"`
	Requests int    `json:"requests"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
}

// ScrapeSummary is returned by a full scrape run
type ScrapeSummary struct {
	Stored     int            `json:"stored"`
	Raw        int            `json:"raw"`
	Duplicates int            `json:"duplicates"`
	Timestamp  string         `json:"timestamp,omitempty"`
	Duration   string         `json:"duration"`
	Brands     []BrandSummary `json:"brands"`
}

// Generation summarizes one scraped batch
type Generation struct {
	Timestamp string `json:"timestamp"`
	Rows      int    `json:"rows"`
}

// StoreStatus is the persistence overview used by the status endpoint
type StoreStatus struct {
	LatestScraped string       `json:"latestScraped,omitempty"`
	ScrapedRows   int          `json:"scrapedRows"`
	ManualRows    int          `json:"manualRows"`
	Generations   []Generation `json:"generations"`
}
