package scraper

import (
	"regexp"
	"strings"
	"unicode"

	"carpricewatch/internal/models"
)

var (
	fuelWordsRe  = regexp.MustCompile(`(?i)\b(?:petrol/ethanol|petrol|diesel|dsl|cng|bi-?fuel|ethanol|electric|ev|strong-hybrid|hybrid)\b`)
	transWordsRe = regexp.MustCompile(`(?i)\b\d*(?:imt|amt|mt|at|dct|dca|ivt|cvt|ags|e-?cvt|manual|automatic)\b`)
	emptyParenRe = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	spaceRe      = regexp.MustCompile(`\s{2,}`)
	spaceCommaRe = regexp.MustCompile(`\s+,`)
	dupCommaRe   = regexp.MustCompile(`,(\s*,)+`)

	evLabelRe     = regexp.MustCompile(`(?i)\b(?:ev|bev|electric)\b`)
	imtLabelRe    = regexp.MustCompile(`(?i)\bimt\b`)
	autoLabelRe   = regexp.MustCompile(`(?i)\b\d*(?:at|amt|dct|dca|ivt|cvt|e-?cvt|ags|tc|automatic|ez-?shift|x-?tronic)\b`)
	manualLabelRe = regexp.MustCompile(`(?i)\b\d*(?:mt|manual)\b`)
)

// NormalizeFuel maps a fuel code or label onto the fuel vocabulary.
// Single-letter codes (P, D, C, H, E) are accepted as well as free text.
func NormalizeFuel(raw string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch v {
	case "":
		return ""
	case "P":
		return models.FuelPetrol
	case "D":
		return models.FuelDiesel
	case "C":
		return models.FuelCNG
	case "H":
		return models.FuelHybrid
	case "E":
		return models.FuelEV
	}

	switch {
	case strings.Contains(v, "CNG"):
		return models.FuelCNG
	case strings.Contains(v, "HYBRID"):
		return models.FuelHybrid
	case strings.Contains(v, "DIESEL"), v == "DSL":
		return models.FuelDiesel
	case evLabelRe.MatchString(v):
		return models.FuelEV
	case strings.Contains(v, "PETROL"), strings.Contains(v, "ETHANOL"), strings.Contains(v, "GASOLINE"):
		return models.FuelPetrol
	}
	return ""
}

// NormalizeTransmission maps a transmission code or label onto the vocabulary.
// AT, AMT, DCT, IVT and CVT variants are all Automatic; MT is Manual; iMT stays distinct.
func NormalizeTransmission(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	compact := strings.ToUpper(strings.ReplaceAll(v, " ", ""))
	switch {
	case compact == "IMT" || imtLabelRe.MatchString(v):
		return models.TransmissionIMT
	case strings.Contains(compact, "AUTM"), strings.Contains(compact, "AUTOMATIC"):
		return models.TransmissionAutomatic
	case strings.Contains(compact, "MANL"), strings.Contains(compact, "MANUAL"):
		return models.TransmissionManual
	case autoLabelRe.MatchString(v) || autoLabelRe.MatchString(compact):
		return models.TransmissionAutomatic
	case manualLabelRe.MatchString(v) || manualLabelRe.MatchString(compact):
		return models.TransmissionManual
	}
	return ""
}

// CleanVariant strips the model name (in several casings), fuel words, transmission
// tokens and any extra brand tokens from a raw trim label, then tidies up whatever
// whitespace and punctuation the stripping left behind.
func CleanVariant(raw, model string, extra ...string) string {
	v := strings.ReplaceAll(raw, "\u00a0", " ")
	if model != "" {
		v = removePhrase(v, model)
		if compact := strings.ReplaceAll(model, " ", ""); compact != model {
			v = removePhrase(v, compact)
		}
		if dashed := strings.ReplaceAll(model, " ", "-"); dashed != model {
			v = removePhrase(v, dashed)
		}
	}
	for _, tok := range extra {
		v = removePhrase(v, tok)
	}
	v = fuelWordsRe.ReplaceAllString(v, " ")
	v = transWordsRe.ReplaceAllString(v, " ")
	return tidy(v)
}

// removePhrase deletes every case-insensitive occurrence of phrase that stands as a
// whole word or words.
func removePhrase(s, phrase string) string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return s
	}
	pattern := regexp.QuoteMeta(phrase)
	if isWordRune(firstRune(phrase)) {
		pattern = `\b` + pattern
	}
	if isWordRune(lastRune(phrase)) {
		pattern += `\b`
	}
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return s
	}
	return re.ReplaceAllString(s, " ")
}

func tidy(s string) string {
	for i := 0; i < 2; i++ {
		s = emptyParenRe.ReplaceAllString(s, " ")
		s = spaceCommaRe.ReplaceAllString(s, ",")
		s = dupCommaRe.ReplaceAllString(s, ",")
		s = spaceRe.ReplaceAllString(s, " ")
		s = strings.Trim(s, " ,-–—:;/|")
	}
	s = strings.ReplaceAll(s, " - ", " ")
	return strings.TrimSpace(s)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}
