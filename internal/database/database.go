package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"carpricewatch/internal/models"
)

// Database is the append-only price store. Scraped rows are written in generations that
// share one timestamp; manual rows are written and deleted one at a time.
type Database struct {
	db  *sql.DB
	now func() time.Time
}

// NewDatabase opens (creating if needed) the SQLite file at dbPath and migrates it
func NewDatabase(dbPath string) (*Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_cache_size=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	database := &Database{db: db, now: time.Now}
	if err := database.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks the connection for health reporting
func (d *Database) Ping() error {
	return d.db.Ping()
}

const rowColumns = `id, timestamp, brand, model, fuel, transmission, variant, price, source`

// StoreBatch appends records as one scraped generation and returns its timestamp.
// A batch with no positive price writes nothing and returns "". The generation timestamp is always
// strictly after the previous latest one so the new batch becomes "latest".
func (d *Database) StoreBatch(records []models.PriceRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var latest sql.NullString
	if err := tx.QueryRow(`SELECT MAX(timestamp) FROM prices WHERE source = ?`, models.SourceScraped).Scan(&latest); err != nil {
		return "", fmt.Errorf("failed to read latest generation: %w", err)
	}
	ts := nextTimestamp(d.now(), latest.String)

	stmt, err := tx.Prepare(`
		INSERT INTO prices (timestamp, brand, model, fuel, transmission, variant, price, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		if r.Price <= 0 {
			continue
		}
		if _, err := stmt.Exec(ts, r.Brand, r.Model, r.Fuel, r.Transmission, r.Variant, r.Price, models.SourceScraped); err != nil {
			return "", fmt.Errorf("failed to insert %s %s %s: %w", r.Brand, r.Model, r.Variant, err)
		}
		inserted++
	}
	if inserted == 0 {
		return "", nil
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}
	return ts, nil
}

// nextTimestamp formats now, bumping it one microsecond past latest when the clock has
// not moved beyond it
func nextTimestamp(now time.Time, latest string) string {
	ts := now.UTC().Format(models.TimestampLayout)
	if latest == "" || ts > latest {
		return ts
	}
	prev, err := time.Parse(models.TimestampLayout, latest)
	if err != nil {
		return ts
	}
	return prev.Add(time.Microsecond).Format(models.TimestampLayout)
}

// AddManual appends one manual row stamped with ts (which may be in the past) and
// returns its id
func (d *Database) AddManual(r models.PriceRecord, ts time.Time) (int64, error) {
	if r.Price <= 0 {
		return 0, fmt.Errorf("price must be positive, got %d", r.Price)
	}
	result, err := d.db.Exec(`
		INSERT INTO prices (timestamp, brand, model, fuel, transmission, variant, price, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ts.UTC().Format(models.TimestampLayout), r.Brand, r.Model, r.Fuel, r.Transmission, r.Variant, r.Price, models.SourceManual)
	if err != nil {
		return 0, fmt.Errorf("failed to add manual price: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get manual row ID: %w", err)
	}
	return id, nil
}

// DeleteManual removes the row with id only if it is a manual row. It reports whether
// anything was deleted; scraped rows are never touched.
func (d *Database) DeleteManual(id int64) (bool, error) {
	result, err := d.db.Exec(`DELETE FROM prices WHERE id = ? AND source = ?`, id, models.SourceManual)
	if err != nil {
		return false, fmt.Errorf("failed to delete manual price %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check deleted rows: %w", err)
	}
	return n > 0, nil
}

// GetEffective returns every manual row plus the rows of the latest scraped generation
func (d *Database) GetEffective() ([]models.StoredPriceRow, error) {
	return d.queryRows(`
		SELECT `+rowColumns+` FROM prices
		WHERE source = ?
		   OR timestamp = (SELECT MAX(timestamp) FROM prices WHERE source = ?)
		ORDER BY brand, model, price, id
	`, models.SourceManual, models.SourceScraped)
}

// GetHistory returns all rows, across every generation, for the given brands and models
// ordered by time. An empty slice leaves that column unrestricted.
func (d *Database) GetHistory(brands, modelNames []string) ([]models.StoredPriceRow, error) {
	query := `SELECT ` + rowColumns + ` FROM prices WHERE 1=1`
	var args []interface{}

	if len(brands) > 0 {
		query += " AND brand IN (" + placeholders(len(brands)) + ")"
		for _, b := range brands {
			args = append(args, b)
		}
	}
	if len(modelNames) > 0 {
		query += " AND model IN (" + placeholders(len(modelNames)) + ")"
		for _, m := range modelNames {
			args = append(args, m)
		}
	}
	query += " ORDER BY timestamp, id"

	return d.queryRows(query, args...)
}

// ListManual returns manual rows newest first
func (d *Database) ListManual() ([]models.StoredPriceRow, error) {
	return d.queryRows(`SELECT `+rowColumns+` FROM prices WHERE source = ? ORDER BY timestamp DESC, id DESC`, models.SourceManual)
}

// LatestScrapedTimestamp returns the newest generation's timestamp, "" if nothing was scraped yet
func (d *Database) LatestScrapedTimestamp() (string, error) {
	var latest sql.NullString
	if err := d.db.QueryRow(`SELECT MAX(timestamp) FROM prices WHERE source = ?`, models.SourceScraped).Scan(&latest); err != nil {
		return "", fmt.Errorf("failed to read latest generation: %w", err)
	}
	return latest.String, nil
}

// Generations lists scraped generations newest first. limit <= 0 returns all.
func (d *Database) Generations(limit int) ([]models.Generation, error) {
	query := `SELECT timestamp, COUNT(*) FROM prices WHERE source = ? GROUP BY timestamp ORDER BY timestamp DESC`
	args := []interface{}{models.SourceScraped}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	gens := []models.Generation{}
	for rows.Next() {
		var g models.Generation
		if err := rows.Scan(&g.Timestamp, &g.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

// Status summarizes what the store holds
func (d *Database) Status(generations int) (models.StoreStatus, error) {
	var status models.StoreStatus

	counts, err := d.db.Query(`SELECT source, COUNT(*) FROM prices GROUP BY source`)
	if err != nil {
		return status, fmt.Errorf("failed to count rows: %w", err)
	}
	defer counts.Close()
	for counts.Next() {
		var source string
		var n int
		if err := counts.Scan(&source, &n); err != nil {
			return status, fmt.Errorf("failed to scan row count: %w", err)
		}
		switch models.Source(source) {
		case models.SourceScraped:
			status.ScrapedRows = n
		case models.SourceManual:
			status.ManualRows = n
		}
	}
	if err := counts.Err(); err != nil {
		return status, err
	}

	if status.LatestScraped, err = d.LatestScrapedTimestamp(); err != nil {
		return status, err
	}
	if status.Generations, err = d.Generations(generations); err != nil {
		return status, err
	}
	return status, nil
}

func (d *Database) queryRows(query string, args ...interface{}) ([]models.StoredPriceRow, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	out := []models.StoredPriceRow{}
	for rows.Next() {
		var r models.StoredPriceRow
		var source string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Brand, &r.Model, &r.Fuel, &r.Transmission, &r.Variant, &r.Price, &source); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Source = models.Source(source)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// ErrNoRows is returned by lookups that find nothing
var ErrNoRows = errors.New("no rows")

// GetRow fetches a single row by id
func (d *Database) GetRow(id int64) (models.StoredPriceRow, error) {
	rows, err := d.queryRows(`SELECT `+rowColumns+` FROM prices WHERE id = ?`, id)
	if err != nil {
		return models.StoredPriceRow{}, err
	}
	if len(rows) == 0 {
		return models.StoredPriceRow{}, ErrNoRows
	}
	return rows[0], nil
}
