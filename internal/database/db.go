package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStoreFailure wraps every persistence error returned by DB.
var ErrStoreFailure = errors.New("store failure")

// Timestamps are stored as fixed-width UTC text so that string comparison
// orders them chronologically and SQLite date functions can read them.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

const busyTimeoutMS = 5000

// DB wraps sql.DB with the history store operations
type DB struct {
	*sql.DB
}

// New opens (creating if needed) the SQLite database at path.
func New(path string) (*DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases alive
	// for the lifetime of the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	return &DB{db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path, sep, busyTimeoutMS)
}

// InitSchema creates all necessary tables
func (db *DB) InitSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS ping_results (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        cycle_id TEXT NOT NULL,
        timestamp TEXT NOT NULL,
        host TEXT NOT NULL,
        status TEXT NOT NULL,
        min_ms REAL,
        avg_ms REAL,
        max_ms REAL,
        packet_loss_pct REAL NOT NULL,
        packets_sent INTEGER NOT NULL,
        packets_received INTEGER NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_timestamp_host ON ping_results(timestamp, host);
    CREATE INDEX IF NOT EXISTS idx_host_timestamp ON ping_results(host, timestamp);

    -- Per-day, per-hour aggregates feeding the heatmap
    CREATE TABLE IF NOT EXISTS hourly_patterns (
        date TEXT NOT NULL,
        hour INTEGER NOT NULL, -- 0-23
        host TEXT NOT NULL,
        total_scans INTEGER,
        down_scans INTEGER,
        avg_rtt_ms REAL,
        max_rtt_ms REAL,
        avg_loss_pct REAL,
        down_rate REAL,
        PRIMARY KEY (date, hour, host)
    );

    CREATE INDEX IF NOT EXISTS idx_hourly_patterns ON hourly_patterns(hour, host);
    `

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.ParseInLocation(tsLayout, s, time.UTC)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}
