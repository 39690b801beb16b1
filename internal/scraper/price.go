package scraper

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceTokenRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?|\.\d+)(lakhs?|lacs?|l|crores?|cr)?$`)
	priceNoise   = strings.NewReplacer(",", "", " ", "", " ", "", "₹", "", "*", "", "/-", "")
	currencyRe   = regexp.MustCompile(`(?i)^(inr|rs\.?)`)
)

// ParseRupees converts a price as it appears upstream into whole rupees.
// Numbers are rounded; strings may carry a currency symbol, thousands separators and a
// lakh or crore suffix ("₹5L", "5.2 Lakh", "1.1 Cr", "7,99,000"). Anything that is not a
// non-negative number yields (0, false).
func ParseRupees(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return wholeRupees(float64(n))
	case int32:
		return wholeRupees(float64(n))
	case int64:
		return wholeRupees(float64(n))
	case uint:
		return wholeRupees(float64(n))
	case uint64:
		return wholeRupees(float64(n))
	case float32:
		return wholeRupees(float64(n))
	case float64:
		return wholeRupees(n)
	case json.Number:
		return parseRupeeString(n.String())
	case string:
		return parseRupeeString(n)
	case *string:
		if n == nil {
			return 0, false
		}
		return parseRupeeString(*n)
	}
	return 0, false
}

// ValidPrice returns the parsed price only when it is strictly positive
func ValidPrice(v any) (int64, bool) {
	p, ok := ParseRupees(v)
	if !ok || p <= 0 {
		return 0, false
	}
	return p, true
}

func parseRupeeString(s string) (int64, bool) {
	s = priceNoise.Replace(strings.TrimSpace(s))
	s = currencyRe.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}

	m := priceTokenRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	switch suffix := strings.ToLower(m[2]); {
	case suffix == "":
	case strings.HasPrefix(suffix, "c"):
		f *= 10000000
	default:
		f *= 100000
	}
	return wholeRupees(f)
}

func wholeRupees(f float64) (int64, bool) {
	if math.IsNaN(f) || f < 0 {
		return 0, false
	}
	// float64(MaxInt64) rounds up to 2^63, which no longer fits
	f = math.Round(f)
	if f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
