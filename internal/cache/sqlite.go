package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"chartist/internal/market"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS indicator_cache (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    instrument     TEXT NOT NULL,
    indicator_name TEXT NOT NULL,
    timeframe      TEXT NOT NULL,
    parameters     TEXT NOT NULL,
    date           TEXT NOT NULL,
    value          TEXT NOT NULL,
    computed_at    TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE (instrument, indicator_name, timeframe, parameters, date)
);
CREATE INDEX IF NOT EXISTS idx_indicator_cache_instrument
    ON indicator_cache (instrument, date);
`

// SQLiteStore persists cache documents in a local SQLite database with the
// mandatory uniqueness on the full key tuple.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT value FROM indicator_cache
WHERE instrument = ? AND indicator_name = ? AND timeframe = ? AND parameters = ? AND date = ?`,
		key.Instrument, key.Indicator, string(key.Timeframe), key.Params, key.Date)
	var value string
	switch err := row.Scan(&value); err {
	case nil:
		return []byte(value), true, nil
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, err
	}
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO indicator_cache (instrument, indicator_name, timeframe, parameters, date, value)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (instrument, indicator_name, timeframe, parameters, date)
DO UPDATE SET value = excluded.value, computed_at = datetime('now')`,
		key.Instrument, key.Indicator, string(key.Timeframe), key.Params, key.Date, string(value))
	return err
}

func (s *SQLiteStore) PurgeFrom(ctx context.Context, instrument string, from time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM indicator_cache WHERE instrument = ? AND date >= ?`,
		instrument, market.Day(from).Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
