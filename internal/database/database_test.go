package database

import (
	"path/filepath"
	"testing"
	"time"

	"carpricewatch/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixedClock makes every StoreBatch see the same wall time
func fixedClock(db *Database, at time.Time) {
	db.now = func() time.Time { return at }
}

func rec(brand, model, variant string, price int64) models.PriceRecord {
	return models.PriceRecord{
		Brand:        brand,
		Model:        model,
		Fuel:         models.FuelPetrol,
		Transmission: models.TransmissionManual,
		Variant:      variant,
		Price:        price,
	}
}

func countRows(t *testing.T, db *Database) int {
	t.Helper()
	var n int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM prices`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestStoreBatchEmptyIsNoop(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.StoreBatch([]models.PriceRecord{rec("Tata", "Nexon", "Creative", 900000)}); err != nil {
		t.Fatalf("StoreBatch failed: %v", err)
	}
	before, _ := db.LatestScrapedTimestamp()

	ts, err := db.StoreBatch(nil)
	if err != nil {
		t.Fatalf("empty StoreBatch returned error: %v", err)
	}
	if ts != "" {
		t.Fatalf("empty StoreBatch returned timestamp %q", ts)
	}
	after, _ := db.LatestScrapedTimestamp()
	if before != after {
		t.Fatalf("latest timestamp changed from %q to %q", before, after)
	}
	if n := countRows(t, db); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestStoreBatchWithoutPositivePricesIsNoop(t *testing.T) {
	db := newTestDatabase(t)

	ts, err := db.StoreBatch([]models.PriceRecord{
		rec("Tata", "Nexon", "Smart", 0),
		rec("Tata", "Punch", "Pure", -1),
	})
	if err != nil {
		t.Fatalf("StoreBatch returned error: %v", err)
	}
	if ts != "" {
		t.Fatalf("StoreBatch returned timestamp %q for a batch that wrote nothing", ts)
	}
	if latest, _ := db.LatestScrapedTimestamp(); latest != "" {
		t.Fatalf("expected no generation, got %q", latest)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}
}

func TestStoreBatchSharesTimestamp(t *testing.T) {
	db := newTestDatabase(t)

	ts, err := db.StoreBatch([]models.PriceRecord{
		rec("Tata", "Nexon", "Smart", 800000),
		rec("Tata", "Nexon", "Creative", 1000000),
	})
	if err != nil {
		t.Fatalf("StoreBatch failed: %v", err)
	}

	latest, err := db.LatestScrapedTimestamp()
	if err != nil || latest != ts {
		t.Fatalf("latest = %q (err %v), want %q", latest, err, ts)
	}

	rows, err := db.GetEffective()
	if err != nil {
		t.Fatalf("GetEffective failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Timestamp != ts || r.Source != models.SourceScraped {
			t.Fatalf("unexpected row %+v", r)
		}
	}
}

func TestStoreBatchTimestampAlwaysAdvances(t *testing.T) {
	db := newTestDatabase(t)
	fixedClock(db, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	first, err := db.StoreBatch([]models.PriceRecord{rec("Kia", "Sonet", "HTE", 800000)})
	if err != nil {
		t.Fatalf("StoreBatch failed: %v", err)
	}
	second, err := db.StoreBatch([]models.PriceRecord{rec("Kia", "Sonet", "HTK", 900000)})
	if err != nil {
		t.Fatalf("StoreBatch failed: %v", err)
	}
	if second <= first {
		t.Fatalf("second generation %q is not after %q", second, first)
	}

	rows, _ := db.GetEffective()
	if len(rows) != 1 || rows[0].Variant != "HTK" {
		t.Fatalf("effective dataset should be only the second generation, got %+v", rows)
	}
}

func TestGetEffectiveMergesLatestGenerationAndManual(t *testing.T) {
	db := newTestDatabase(t)

	fixedClock(db, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	if _, err := db.StoreBatch([]models.PriceRecord{
		rec("Hyundai", "Creta", "E", 1100000),
		rec("Hyundai", "Creta", "S", 1300000),
	}); err != nil {
		t.Fatalf("StoreBatch T1 failed: %v", err)
	}

	fixedClock(db, time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	t2, err := db.StoreBatch([]models.PriceRecord{
		rec("Hyundai", "Creta", "E", 1120000),
		rec("Hyundai", "Creta", "SX", 1500000),
		rec("Hyundai", "Venue", "S", 950000),
	})
	if err != nil {
		t.Fatalf("StoreBatch T2 failed: %v", err)
	}

	// Backdated before both generations; manual rows are always effective
	manualID, err := db.AddManual(rec("Hyundai", "Creta", "Dealer special", 1050000), time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	rows, err := db.GetEffective()
	if err != nil {
		t.Fatalf("GetEffective failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 3 scraped + 1 manual rows, got %d: %+v", len(rows), rows)
	}
	var manual int
	for _, r := range rows {
		switch r.Source {
		case models.SourceManual:
			manual++
			if r.ID != manualID {
				t.Fatalf("unexpected manual row %+v", r)
			}
		case models.SourceScraped:
			if r.Timestamp != t2 {
				t.Fatalf("row from an older generation leaked into effective set: %+v", r)
			}
		}
	}
	if manual != 1 {
		t.Fatalf("expected 1 manual row, got %d", manual)
	}
}

func TestGetEffectiveWithOnlyManualRows(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.AddManual(rec("MG", "Hector", "Sharp Pro", 2000000), time.Now()); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}
	rows, err := db.GetEffective()
	if err != nil {
		t.Fatalf("GetEffective failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Source != models.SourceManual {
		t.Fatalf("expected the manual row only, got %+v", rows)
	}
}

func TestDeleteManualGuardsScrapedRows(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.StoreBatch([]models.PriceRecord{rec("Toyota", "Innova", "GX", 2000000)}); err != nil {
		t.Fatalf("StoreBatch failed: %v", err)
	}
	scraped, _ := db.GetEffective()
	manualID, err := db.AddManual(rec("Toyota", "Innova", "GX Plus", 2100000), time.Now())
	if err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	before := countRows(t, db)
	deleted, err := db.DeleteManual(scraped[0].ID)
	if err != nil {
		t.Fatalf("DeleteManual failed: %v", err)
	}
	if deleted {
		t.Fatalf("deleting a scraped row should be a no-op")
	}
	if after := countRows(t, db); after != before {
		t.Fatalf("row count changed from %d to %d", before, after)
	}

	deleted, err = db.DeleteManual(manualID)
	if err != nil || !deleted {
		t.Fatalf("expected manual row to be deleted, got %v (err %v)", deleted, err)
	}
	if _, err := db.GetRow(manualID); err != ErrNoRows {
		t.Fatalf("expected ErrNoRows after delete, got %v", err)
	}

	deleted, _ = db.DeleteManual(manualID)
	if deleted {
		t.Fatalf("second delete should report nothing deleted")
	}
}

func TestGetHistoryFiltersAndOrders(t *testing.T) {
	db := newTestDatabase(t)

	fixedClock(db, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	db.StoreBatch([]models.PriceRecord{
		rec("Tata", "Nexon", "Smart", 800000),
		rec("Tata", "Punch", "Pure", 600000),
		rec("Kia", "Seltos", "HTE", 1100000),
	})
	fixedClock(db, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	db.StoreBatch([]models.PriceRecord{
		rec("Tata", "Nexon", "Smart", 820000),
		rec("Kia", "Seltos", "HTE", 1120000),
	})
	db.AddManual(rec("Tata", "Nexon", "Smart", 790000), time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC))

	rows, err := db.GetHistory([]string{"Tata"}, []string{"Nexon"})
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 Nexon rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp < rows[i-1].Timestamp {
			t.Fatalf("history not ordered by timestamp: %+v", rows)
		}
	}
	if rows[0].Source != models.SourceManual || rows[0].Price != 790000 {
		t.Fatalf("backdated manual row should come first, got %+v", rows[0])
	}

	all, err := db.GetHistory(nil, nil)
	if err != nil || len(all) != 6 {
		t.Fatalf("unfiltered history: %d rows, err %v", len(all), err)
	}

	kia, _ := db.GetHistory([]string{"Kia"}, nil)
	if len(kia) != 2 {
		t.Fatalf("expected 2 Kia rows, got %d", len(kia))
	}
}

func TestListManualAndStatus(t *testing.T) {
	db := newTestDatabase(t)

	db.StoreBatch([]models.PriceRecord{rec("Nissan", "Magnite", "XE", 600000), rec("Nissan", "Magnite", "XL", 700000)})
	older, _ := db.AddManual(rec("Nissan", "Magnite", "A", 610000), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer, _ := db.AddManual(rec("Nissan", "Magnite", "B", 620000), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	manual, err := db.ListManual()
	if err != nil {
		t.Fatalf("ListManual failed: %v", err)
	}
	if len(manual) != 2 || manual[0].ID != newer || manual[1].ID != older {
		t.Fatalf("manual rows not newest first: %+v", manual)
	}

	status, err := db.Status(5)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.ScrapedRows != 2 || status.ManualRows != 2 {
		t.Fatalf("unexpected counts: %+v", status)
	}
	if len(status.Generations) != 1 || status.Generations[0].Rows != 2 {
		t.Fatalf("unexpected generations: %+v", status.Generations)
	}
	if status.LatestScraped == "" {
		t.Fatalf("expected latest scraped timestamp")
	}
}

func TestAddManualRejectsNonPositivePrice(t *testing.T) {
	db := newTestDatabase(t)
	if _, err := db.AddManual(rec("Kia", "Carens", "Premium", 0), time.Now()); err == nil {
		t.Fatalf("expected error for zero price")
	}
}

func TestNextTimestamp(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := nextTimestamp(now, ""); got != "2025-05-01T12:00:00.000000" {
		t.Fatalf("nextTimestamp = %q", got)
	}
	if got := nextTimestamp(now, "2025-05-01T12:00:00.000000"); got != "2025-05-01T12:00:00.000001" {
		t.Fatalf("expected bump past equal latest, got %q", got)
	}
	if got := nextTimestamp(now, "2025-06-01T00:00:00.000000"); got != "2025-06-01T00:00:00.000001" {
		t.Fatalf("expected bump past future latest, got %q", got)
	}
}
