package database

import (
	"context"
	"time"
)

// AggregateHourlyPatterns folds the last two days of raw results into
// hourly_patterns. Re-running it replaces the rows it produced before.
func (db *DB) AggregateHourlyPatterns(ctx context.Context) error {
	query := `
        INSERT OR REPLACE INTO hourly_patterns (date, hour, host, total_scans, down_scans,
            avg_rtt_ms, max_rtt_ms, avg_loss_pct, down_rate)
        SELECT
            strftime('%Y-%m-%d', timestamp) as date,
            CAST(strftime('%H', timestamp) AS INTEGER) as hour,
            host,
            COUNT(*) as total_scans,
            SUM(CASE WHEN status = 'down' THEN 1 ELSE 0 END) as down_scans,
            AVG(CASE WHEN status = 'up' THEN avg_ms ELSE NULL END) as avg_rtt_ms,
            MAX(CASE WHEN status = 'up' THEN max_ms ELSE NULL END) as max_rtt_ms,
            AVG(packet_loss_pct) as avg_loss_pct,
            ROUND((SUM(CASE WHEN status = 'down' THEN 1 ELSE 0 END) * 100.0 / COUNT(*)), 2) as down_rate
        FROM ping_results
        WHERE timestamp > ?
        AND strftime('%Y-%m-%d', timestamp) IS NOT NULL
        GROUP BY date, hour, host
    `
	if _, err := db.ExecContext(ctx, query, formatTS(time.Now().Add(-48*time.Hour))); err != nil {
		return storeErr("DB.AggregateHourlyPatterns", err)
	}
	return nil
}

// PruneBefore deletes raw results and hourly patterns older than cutoff and
// reports how many raw results were removed.
func (db *DB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM ping_results WHERE timestamp < ?`, formatTS(cutoff))
	if err != nil {
		return 0, storeErr("DB.PruneBefore", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("DB.PruneBefore", err)
	}

	_, err = db.ExecContext(ctx, `DELETE FROM hourly_patterns WHERE date < ?`,
		cutoff.UTC().Format(time.DateOnly))
	if err != nil {
		return n, storeErr("DB.PruneBefore", err)
	}

	// Reclaim space on the first day of the month
	if n > 0 && time.Now().Day() == 1 {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return n, storeErr("DB.PruneBefore", err)
		}
	}
	return n, nil
}
