package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"carpricewatch/internal/models"
)

// SnapshotVersion is written into every JSON snapshot
const SnapshotVersion = "1.0"

var csvHeader = []string{"id", "timestamp", "source", "brand", "model", "fuel", "transmission", "variant", "price", "price_lakhs"}

// WriteCSV writes rows as CSV with a header line. Prices are given both in rupees and lakhs.
func WriteCSV(w io.Writer, rows []models.StoredPriceRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp,
			string(r.Source),
			r.Brand,
			r.Model,
			r.Fuel,
			r.Transmission,
			r.Variant,
			strconv.FormatInt(r.Price, 10),
			strconv.FormatFloat(r.PriceLakhs(), 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Snapshot is the JSON file layout used to back up and restore rows
type Snapshot struct {
	Rows       []models.StoredPriceRow `json:"rows"`
	ExportedAt time.Time               `json:"exportedAt"`
	Version    string                  `json:"version"`
}

// SaveSnapshot writes rows to path as a JSON snapshot, creating the directory if needed
func SaveSnapshot(path string, rows []models.StoredPriceRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(Snapshot{
		Rows:       rows,
		ExportedAt: time.Now().UTC(),
		Version:    SnapshotVersion,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %q", snap.Version)
	}
	return snap, nil
}
