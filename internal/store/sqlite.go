package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lighterdata/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ SnapshotStore = (*SQLiteStore)(nil)

// SQLiteStore implements SnapshotStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS funding_snapshots (
	market_id TEXT    NOT NULL,
	exchange  TEXT    NOT NULL,
	rate      REAL    NOT NULL,
	taken_at  INTEGER NOT NULL, -- Unix ms
	PRIMARY KEY (market_id, exchange, taken_at)
);`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createSnapshotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating funding_snapshots table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshots inserts a batch of funding snapshots in one transaction.
// Re-inserting the same (market, exchange, time) overwrites the row.
func (s *SQLiteStore) SaveSnapshots(ctx context.Context, snaps []domain.FundingSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO funding_snapshots (market_id, exchange, rate, taken_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, snap := range snaps {
		if _, err := stmt.ExecContext(ctx, snap.MarketID, snap.Exchange, snap.Rate, snap.TakenAt.UnixMilli()); err != nil {
			return fmt.Errorf("inserting snapshot for market %s: %w", snap.MarketID, err)
		}
	}
	return tx.Commit()
}

// LatestSnapshots returns the most recent snapshot per market and exchange.
func (s *SQLiteStore) LatestSnapshots(ctx context.Context) ([]domain.FundingSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, exchange, rate, MAX(taken_at)
		FROM funding_snapshots
		GROUP BY market_id, exchange
		ORDER BY market_id, exchange`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.FundingSnapshot
	for rows.Next() {
		var snap domain.FundingSnapshot
		var takenAt int64
		if err := rows.Scan(&snap.MarketID, &snap.Exchange, &snap.Rate, &takenAt); err != nil {
			return nil, err
		}
		snap.TakenAt = time.UnixMilli(takenAt)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
