package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"carpricewatch/internal/models"
)

func sampleRows() []models.StoredPriceRow {
	return []models.StoredPriceRow{
		{
			ID: 1, Timestamp: "2025-01-01T09:00:00.000000", Source: models.SourceScraped,
			PriceRecord: models.PriceRecord{Brand: "Tata", Model: "Nexon", Fuel: "Petrol", Transmission: "Manual", Variant: "Smart, Plus", Price: 799000},
		},
		{
			ID: 7, Timestamp: "2024-12-01T00:00:00.000000", Source: models.SourceManual,
			PriceRecord: models.PriceRecord{Brand: "MG", Model: "Comet", Fuel: "EV", Variant: "Executive", Price: 699000},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "id" || records[0][9] != "price_lakhs" {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][7] != "Smart, Plus" {
		t.Fatalf("variant with comma was not quoted correctly: %q", records[1][7])
	}
	if records[1][8] != "799000" || records[1][9] != "7.99" {
		t.Fatalf("unexpected prices %v", records[1][8:])
	}
	if records[2][2] != "manual" {
		t.Fatalf("expected manual source, got %q", records[2][2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected only the header, got %d lines", len(records))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup", "prices.json")
	if err := SaveSnapshot(path, sampleRows()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(snap.Rows) != 2 || snap.Rows[1].Source != models.SourceManual || snap.Rows[0].Price != 799000 {
		t.Fatalf("unexpected snapshot rows: %+v", snap.Rows)
	}
	if snap.ExportedAt.IsZero() {
		t.Fatalf("expected export time to be set")
	}
}

func TestLoadSnapshotRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"rows":[],"version":"0.1"}`), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
