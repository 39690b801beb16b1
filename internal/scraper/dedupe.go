package scraper

import "carpricewatch/internal/models"

// Deduplicate drops records that match an earlier record on all six fields.
// The first occurrence wins and survivors keep their order.
func Deduplicate(records []models.PriceRecord) []models.PriceRecord {
	seen := make(map[models.PriceRecord]bool, len(records))
	unique := make([]models.PriceRecord, 0, len(records))

	for _, rec := range records {
		if seen[rec] {
			continue
		}
		seen[rec] = true
		unique = append(unique, rec)
	}
	return unique
}
