package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"carpricewatch/internal/models"
)

// MaxPriceRupees is the upper bound accepted for a manual price (ten crore)
const MaxPriceRupees = 100_000_000

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	unsafeRe     = regexp.MustCompile(`[<>"'&]`)
)

// ValidateBrand maps name onto the fixed brand set
func ValidateBrand(name string) (string, error) {
	brand, ok := models.CanonicalBrand(name)
	if !ok {
		return "", fmt.Errorf("brand must be one of %s", strings.Join(models.AllBrands(), ", "))
	}
	return brand, nil
}

// ValidateName sanitizes a model or variant name: whitespace is collapsed, HTML-significant
// characters are removed, and the result must be 1..maxLen characters
func ValidateName(field, value string, maxLen int) (string, error) {
	value = whitespaceRe.ReplaceAllString(value, " ")
	value = strings.TrimSpace(unsafeRe.ReplaceAllString(value, ""))

	if len(value) < 1 || len(value) > maxLen {
		return "", fmt.Errorf("%s must be between 1 and %d characters", field, maxLen)
	}
	return value, nil
}

// ValidateFuel accepts a fuel from the vocabulary in any letter case; empty means unknown
func ValidateFuel(fuel string) (string, error) {
	for _, f := range []string{models.FuelPetrol, models.FuelDiesel, models.FuelCNG, models.FuelHybrid, models.FuelEV} {
		if strings.EqualFold(strings.TrimSpace(fuel), f) {
			return f, nil
		}
	}
	if strings.TrimSpace(fuel) == "" {
		return "", nil
	}
	return "", fmt.Errorf("fuel must be one of Petrol, Diesel, CNG, Hybrid, EV")
}

// ValidateTransmission accepts a transmission from the vocabulary in any letter case
func ValidateTransmission(transmission string) (string, error) {
	t := strings.TrimSpace(transmission)
	for _, v := range []string{models.TransmissionManual, models.TransmissionAutomatic, models.TransmissionIMT} {
		if strings.EqualFold(t, v) {
			return v, nil
		}
	}
	if t == "" {
		return "", nil
	}
	return "", fmt.Errorf("transmission must be one of Manual, Automatic, iMT")
}

// ResolvePrice returns the price in rupees from exactly one of rupees or lakhs.
// Lakhs are converted at 1 lakh = 100000 rupees and rounded to the nearest rupee.
func ResolvePrice(rupees int64, lakhs float64) (int64, error) {
	switch {
	case rupees != 0 && lakhs != 0:
		return 0, fmt.Errorf("give the price in rupees or in lakhs, not both")
	case rupees < 0 || lakhs < 0 || math.IsNaN(lakhs) || math.IsInf(lakhs, 0):
		return 0, fmt.Errorf("price must be positive")
	}

	price := rupees
	if lakhs != 0 {
		price = int64(math.Round(lakhs * models.RupeesPerLakh))
	}
	if price <= 0 {
		return 0, fmt.Errorf("price must be positive")
	}
	if price > MaxPriceRupees {
		return 0, fmt.Errorf("price must not exceed %d rupees", MaxPriceRupees)
	}
	return price, nil
}

// ParseTimestamp accepts RFC3339, the storage layout or a bare date. Empty means now.
// Future timestamps are rejected.
func ParseTimestamp(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}

	for _, layout := range []string{time.RFC3339Nano, models.TimestampLayout, "2006-01-02T15:04:05", "2006-01-02"} {
		ts, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if ts.After(now) {
			return time.Time{}, fmt.Errorf("timestamp must not be in the future")
		}
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("timestamp must be RFC3339 or YYYY-MM-DD")
}

// ValidateManualEntry checks and normalizes a manual entry request into a record
// and the timestamp it should be stored under
func ValidateManualEntry(req models.ManualEntryRequest, now time.Time) (models.PriceRecord, time.Time, error) {
	var (
		rec models.PriceRecord
		err error
	)
	if rec.Brand, err = ValidateBrand(req.Brand); err != nil {
		return rec, time.Time{}, err
	}
	if rec.Model, err = ValidateName("model", req.Model, 60); err != nil {
		return rec, time.Time{}, err
	}
	if rec.Variant, err = ValidateName("variant", req.Variant, 80); err != nil {
		return rec, time.Time{}, err
	}
	if rec.Fuel, err = ValidateFuel(req.Fuel); err != nil {
		return rec, time.Time{}, err
	}
	if rec.Transmission, err = ValidateTransmission(req.Transmission); err != nil {
		return rec, time.Time{}, err
	}
	if rec.Price, err = ResolvePrice(req.PriceRupees, req.PriceLakhs); err != nil {
		return rec, time.Time{}, err
	}

	ts, err := ParseTimestamp(req.Timestamp, now)
	if err != nil {
		return rec, time.Time{}, err
	}
	return rec, ts, nil
}
