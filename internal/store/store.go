package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elonfeng/dealradar/pkg/pipeline"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// PriceObservation is one immutable price sample for a product at a retailer
// at a point in time. Observations are append-only: never updated or deleted.
type PriceObservation struct {
	ID            int64     `db:"id"`
	ProductID     string    `db:"product_id"`
	Retailer      string    `db:"retailer"`
	Price         float64   `db:"price"`
	OriginalPrice float64   `db:"original_price"`
	Title         string    `db:"title"`
	URL           string    `db:"url"`
	Timestamp     time.Time `db:"timestamp"`
}

// HistoryStats summarizes the price history table.
type HistoryStats struct {
	TotalRecords   int        `json:"total_records"`
	UniqueProducts int        `json:"unique_products"`
	OldestRecord   *time.Time `json:"oldest_record,omitempty"`
	NewestRecord   *time.Time `json:"newest_record,omitempty"`
}

// Store is the persistence interface.
type Store interface {
	AppendObservation(ctx context.Context, obs *PriceObservation) error
	History(ctx context.Context, productID, retailer string, since time.Time) ([]PriceObservation, error)
	HistoryStats(ctx context.Context) (*HistoryStats, error)

	SaveResult(ctx context.Context, res *pipeline.Result) error
	LatestResult(ctx context.Context) (*pipeline.Result, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendObservation inserts one price sample. A duplicate (product, retailer,
// timestamp) is silently ignored, which makes re-insertion idempotent without
// any locking.
func (s *SQLiteStore) AppendObservation(ctx context.Context, obs *PriceObservation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO price_history (product_id, retailer, price, original_price, title, url, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, obs.ProductID, obs.Retailer, obs.Price, obs.OriginalPrice, obs.Title, obs.URL, obs.Timestamp)
	if err != nil {
		return fmt.Errorf("append observation %s/%s: %w", obs.ProductID, obs.Retailer, err)
	}
	return nil
}

// History returns observations for a product+retailer pair since the given
// time, most recent first.
func (s *SQLiteStore) History(ctx context.Context, productID, retailer string, since time.Time) ([]PriceObservation, error) {
	var obs []PriceObservation
	err := s.db.SelectContext(ctx, &obs, `
		SELECT * FROM price_history
		WHERE product_id = ? AND retailer = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`, productID, retailer, since)
	if err != nil {
		return nil, fmt.Errorf("price history %s/%s: %w", productID, retailer, err)
	}
	return obs, nil
}

func (s *SQLiteStore) HistoryStats(ctx context.Context) (*HistoryStats, error) {
	stats := &HistoryStats{}

	if err := s.db.GetContext(ctx, &stats.TotalRecords, "SELECT COUNT(*) FROM price_history"); err != nil {
		return nil, fmt.Errorf("count history records: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.UniqueProducts, "SELECT COUNT(DISTINCT product_id) FROM price_history"); err != nil {
		return nil, fmt.Errorf("count history products: %w", err)
	}

	if stats.TotalRecords > 0 {
		var oldest, newest time.Time
		if err := s.db.GetContext(ctx, &oldest,
			"SELECT timestamp FROM price_history ORDER BY timestamp ASC LIMIT 1"); err != nil {
			return nil, fmt.Errorf("oldest history record: %w", err)
		}
		if err := s.db.GetContext(ctx, &newest,
			"SELECT timestamp FROM price_history ORDER BY timestamp DESC LIMIT 1"); err != nil {
			return nil, fmt.Errorf("newest history record: %w", err)
		}
		stats.OldestRecord = &oldest
		stats.NewestRecord = &newest
	}

	return stats, nil
}

// SaveResult persists one pipeline result snapshot as the served artifact.
func (s *SQLiteStore) SaveResult(ctx context.Context, res *pipeline.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deal_results (payload, created_at) VALUES (?, ?)
	`, string(payload), res.LastUpdated)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// LatestResult returns the newest stored result, or nil when no run has
// completed yet.
func (s *SQLiteStore) LatestResult(ctx context.Context) (*pipeline.Result, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload,
		"SELECT payload FROM deal_results ORDER BY created_at DESC, id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, nil
}
