package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpricewatch/internal/cache"
	"carpricewatch/internal/config"
	"carpricewatch/internal/database"
	"carpricewatch/internal/export"
	"carpricewatch/internal/models"
	"carpricewatch/internal/scraper"
	"carpricewatch/internal/tracker"
)

func usage() {
	fmt.Println("Usage: pricectl <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  migrate              - Create or upgrade the database schema")
	fmt.Println("  status               - Show schema version, row counts and generations")
	fmt.Println("  scrape               - Run one full scrape and store it")
	fmt.Println("  export-csv [path]    - Write the latest effective prices as CSV (stdout if no path)")
	fmt.Println("  export-json [path]   - Write every stored row to a JSON snapshot")
	fmt.Println("  import-json [path]   - Restore manual rows from a JSON snapshot")
}

func main() {
	fmt.Println("🗃️  Car Price Watch Tool")
	fmt.Println("========================")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	command := os.Args[1]
	arg := ""
	if len(os.Args) >= 3 {
		arg = os.Args[2]
	}

	cfg := config.Load()

	// Opening the database applies pending migrations
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	switch command {
	case "migrate":
		err = showVersion(db, os.Stdout)
	case "status":
		err = showStatus(db, cfg.DBPath, os.Stdout)
	case "scrape":
		err = runScrape(cfg, db, os.Stdout)
	case "export-csv":
		err = exportCSV(db, arg)
	case "export-json":
		if arg == "" {
			arg = "./data/prices_snapshot.json"
		}
		err = exportJSON(db, arg, os.Stdout)
	case "import-json":
		if arg == "" {
			arg = "./data/prices_snapshot.json"
		}
		err = importJSON(db, arg, os.Stdout)
	default:
		usage()
		log.Fatal("Unknown command: ", command)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", command, err)
	}
}

func showVersion(db *database.Database, out io.Writer) error {
	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Database is at schema version %d\n", version)
	return nil
}

func showStatus(db *database.Database, dbPath string, out io.Writer) error {
	if err := showVersion(db, out); err != nil {
		return err
	}

	status, err := db.Status(10)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "📋 scraped rows: %d\n", status.ScrapedRows)
	fmt.Fprintf(out, "📋 manual rows: %d\n", status.ManualRows)
	if status.LatestScraped == "" {
		fmt.Fprintln(out, "📊 No scrape stored yet")
	}
	for _, g := range status.Generations {
		fmt.Fprintf(out, "📊 %s  %d rows\n", g.Timestamp, g.Rows)
	}

	if stat, err := os.Stat(dbPath); err == nil {
		fmt.Fprintf(out, "💾 Database size: %.2f KB\n", float64(stat.Size())/1024)
	}
	return nil
}

func runScrape(cfg *config.Config, db *database.Database, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := scraper.New(cfg.ScraperOptions(cache.NewFilterCache(cfg.FilterCachePath(), 0)))
	defer s.Close()

	summary, err := tracker.New(s, db).RunFullScrape(ctx)
	for _, b := range summary.Brands {
		line := fmt.Sprintf("  %-9s %-7s %4d records", b.Brand, b.Status, b.Records)
		if b.Error != "" {
			line += "  (" + b.Error + ")"
		}
		fmt.Fprintln(out, line)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Stored %d prices (%d duplicates dropped) at %s\n", summary.Stored, summary.Duplicates, summary.Timestamp)
	return nil
}

func exportCSV(db *database.Database, path string) error {
	rows, err := db.GetEffective()
	if err != nil {
		return err
	}
	if path == "" {
		return export.WriteCSV(os.Stdout, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := export.WriteCSV(f, rows); err != nil {
		return err
	}
	log.Printf("✅ Exported %d prices to %s", len(rows), path)
	return nil
}

func exportJSON(db *database.Database, path string, out io.Writer) error {
	rows, err := db.GetHistory(nil, nil)
	if err != nil {
		return err
	}
	if err := export.SaveSnapshot(path, rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Wrote %d rows to %s\n", len(rows), path)
	return nil
}

type manualKey struct {
	timestamp string
	record    models.PriceRecord
}

// importJSON restores the manual rows of a snapshot. Scraped rows are skipped since
// generations are recreated by scraping, and manual rows already present are not
// inserted twice.
func importJSON(db *database.Database, path string, out io.Writer) error {
	fmt.Fprintf(out, "Importing manual prices from %s...\n", path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file not found: %s", path)
	}
	snap, err := export.LoadSnapshot(path)
	if err != nil {
		return err
	}

	existing, err := db.ListManual()
	if err != nil {
		return err
	}
	seen := make(map[manualKey]bool, len(existing))
	for _, r := range existing {
		seen[manualKey{r.Timestamp, r.PriceRecord}] = true
	}

	imported, skipped := 0, 0
	for _, r := range snap.Rows {
		if r.Source != models.SourceManual || seen[manualKey{r.Timestamp, r.PriceRecord}] {
			skipped++
			continue
		}
		ts, err := time.ParseInLocation(models.TimestampLayout, r.Timestamp, time.UTC)
		if err != nil {
			log.Printf("Warning: bad timestamp on row %d, skipping: %v", r.ID, err)
			skipped++
			continue
		}
		if _, err := db.AddManual(r.PriceRecord, ts); err != nil {
			log.Printf("Warning: failed to import row %d (%s %s): %v", r.ID, r.Brand, r.Model, err)
			skipped++
			continue
		}
		seen[manualKey{r.Timestamp, r.PriceRecord}] = true
		imported++
	}

	fmt.Fprintf(out, "✅ Imported %d manual prices, skipped %d rows\n", imported, skipped)
	return nil
}
