package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netdiag/internal/models"
)

// Append saves every result of a cycle in one transaction.
func (db *DB) Append(ctx context.Context, cycle models.ScanCycle) error {
	if len(cycle.Results) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("DB.Append", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO ping_results (cycle_id, timestamp, host, status, min_ms, avg_ms, max_ms,
            packet_loss_pct, packets_sent, packets_received)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return storeErr("DB.Append", err)
	}
	defer stmt.Close()

	for _, r := range cycle.Results {
		ts := r.Timestamp
		if ts.IsZero() {
			ts = cycle.Timestamp
		}
		_, err := stmt.ExecContext(ctx,
			cycle.ID,
			formatTS(ts),
			r.Host,
			string(r.Status),
			nullFloat(r.MinMS),
			nullFloat(r.AvgMS),
			nullFloat(r.MaxMS),
			r.PacketLossPct,
			r.PacketsSent,
			r.PacketsReceived,
		)
		if err != nil {
			return storeErr("DB.Append", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("DB.Append", err)
	}
	return nil
}

// Query returns the history of one host newer than since, newest first.
func (db *DB) Query(ctx context.Context, host string, since time.Time) ([]models.HistoryRecord, error) {
	query := `
        SELECT id, cycle_id, timestamp, host, status, min_ms, avg_ms, max_ms,
            packet_loss_pct, packets_sent, packets_received
        FROM ping_results
        WHERE host = ? AND timestamp > ?
        ORDER BY timestamp DESC, id DESC
    `

	rows, err := db.QueryContext(ctx, query, host, formatTS(since))
	if err != nil {
		return nil, storeErr("DB.Query", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, storeErr("DB.Query", err)
	}
	return records, nil
}

// Range returns every stored result in [from, to), oldest first.
func (db *DB) Range(ctx context.Context, from, to time.Time) ([]models.HistoryRecord, error) {
	query := `
        SELECT id, cycle_id, timestamp, host, status, min_ms, avg_ms, max_ms,
            packet_loss_pct, packets_sent, packets_received
        FROM ping_results
        WHERE timestamp >= ? AND timestamp < ?
        ORDER BY timestamp, id
    `

	rows, err := db.QueryContext(ctx, query, formatTS(from), formatTS(to))
	if err != nil {
		return nil, storeErr("DB.Range", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, storeErr("DB.Range", err)
	}
	return records, nil
}

func scanRecords(rows *sql.Rows) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	for rows.Next() {
		var (
			rec              models.HistoryRecord
			ts, status       string
			minMS, avg, maxM sql.NullFloat64
		)
		err := rows.Scan(&rec.ID, &rec.CycleID, &ts, &rec.Host, &status,
			&minMS, &avg, &maxM, &rec.PacketLossPct, &rec.PacketsSent, &rec.PacketsReceived)
		if err != nil {
			return nil, err
		}
		if rec.Timestamp, err = parseTS(ts); err != nil {
			return nil, fmt.Errorf("row %d: %w", rec.ID, err)
		}
		rec.Status = models.Status(status)
		rec.MinMS = floatPtr(minMS)
		rec.AvgMS = floatPtr(avg)
		rec.MaxMS = floatPtr(maxM)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats retrieves per-host statistics for the last hours.
func (db *DB) GetStats(ctx context.Context, hours int) ([]models.Stats, error) {
	query := `
        SELECT
            host,
            COUNT(*) as total_scans,
            SUM(CASE WHEN status = 'up' THEN 1 ELSE 0 END) as up_scans,
            AVG(CASE WHEN status = 'up' THEN avg_ms ELSE NULL END) as avg_rtt,
            MAX(CASE WHEN status = 'up' THEN max_ms ELSE NULL END) as max_rtt,
            MIN(CASE WHEN status = 'up' THEN min_ms ELSE NULL END) as min_rtt,
            ROUND(AVG(packet_loss_pct), 2) as packet_loss
        FROM ping_results
        WHERE timestamp > ?
        GROUP BY host
        ORDER BY host
    `

	rows, err := db.QueryContext(ctx, query, formatTS(time.Now().Add(-time.Duration(hours)*time.Hour)))
	if err != nil {
		return nil, storeErr("DB.GetStats", err)
	}
	defer rows.Close()

	var stats []models.Stats
	for rows.Next() {
		var s models.Stats
		var avgRTT, maxRTT, minRTT sql.NullFloat64
		err := rows.Scan(&s.Host, &s.TotalScans, &s.UpScans,
			&avgRTT, &maxRTT, &minRTT, &s.PacketLossPct)
		if err != nil {
			return nil, storeErr("DB.GetStats", err)
		}
		s.AvgRTT = avgRTT.Float64
		s.MaxRTT = maxRTT.Float64
		s.MinRTT = minRTT.Float64
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("DB.GetStats", err)
	}
	return stats, nil
}

// GetOutages returns runs of consecutive down results per host, newest
// first. A single down cycle between two up cycles counts as an outage.
func (db *DB) GetOutages(ctx context.Context, days int) ([]models.Outage, error) {
	query := `
        WITH ordered AS (
            SELECT
                host,
                timestamp,
                status,
                ROW_NUMBER() OVER (PARTITION BY host ORDER BY timestamp, id) -
                ROW_NUMBER() OVER (PARTITION BY host, status ORDER BY timestamp, id) as grp
            FROM ping_results
            WHERE timestamp > ?
        )
        SELECT
            host,
            MIN(timestamp) as start_time,
            MAX(timestamp) as end_time,
            COUNT(*) as down_results
        FROM ordered
        WHERE status = 'down'
        GROUP BY host, grp
        ORDER BY start_time DESC
        LIMIT 100
    `

	rows, err := db.QueryContext(ctx, query, formatTS(time.Now().AddDate(0, 0, -days)))
	if err != nil {
		return nil, storeErr("DB.GetOutages", err)
	}
	defer rows.Close()

	var outages []models.Outage
	for rows.Next() {
		var o models.Outage
		var start, end string
		if err := rows.Scan(&o.Host, &start, &end, &o.DownResults); err != nil {
			return nil, storeErr("DB.GetOutages", err)
		}
		if o.StartTime, err = parseTS(start); err != nil {
			return nil, storeErr("DB.GetOutages", err)
		}
		if o.EndTime, err = parseTS(end); err != nil {
			return nil, storeErr("DB.GetOutages", err)
		}
		o.Duration = o.EndTime.Sub(o.StartTime).String()
		outages = append(outages, o)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("DB.GetOutages", err)
	}
	return outages, nil
}

// GetHeatmapData averages the hourly patterns of the last days by hour of day.
func (db *DB) GetHeatmapData(ctx context.Context, days int) ([]models.HeatmapPoint, error) {
	query := `
        SELECT
            hour,
            host,
            AVG(down_rate) as avg_down_rate,
            AVG(avg_rtt_ms) as avg_latency,
            MAX(max_rtt_ms) as max_latency,
            AVG(avg_loss_pct) as avg_loss,
            SUM(down_scans) as total_down,
            SUM(total_scans) as total_scans,
            COUNT(DISTINCT date) as days_with_data
        FROM hourly_patterns
        WHERE date > ?
        GROUP BY hour, host
        ORDER BY hour, host
    `

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.DateOnly)
	rows, err := db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, storeErr("DB.GetHeatmapData", err)
	}
	defer rows.Close()

	var heatmapData []models.HeatmapPoint
	for rows.Next() {
		var h models.HeatmapPoint
		var avgLatency, maxLatency, avgLoss sql.NullFloat64
		err := rows.Scan(&h.Hour, &h.Host, &h.DownRate, &avgLatency,
			&maxLatency, &avgLoss, &h.TotalDown, &h.TotalScans, &h.DaysWithData)
		if err != nil {
			return nil, storeErr("DB.GetHeatmapData", err)
		}
		h.AvgLatency = avgLatency.Float64
		h.MaxLatency = maxLatency.Float64
		h.AvgLossPct = avgLoss.Float64
		heatmapData = append(heatmapData, h)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("DB.GetHeatmapData", err)
	}
	return heatmapData, nil
}

// GetPatterns retrieves the last 30 days of pattern data for one hour of day.
func (db *DB) GetPatterns(ctx context.Context, hour int) ([]models.PatternDetail, error) {
	query := `
        SELECT
            date,
            host,
            total_scans,
            down_scans,
            avg_rtt_ms,
            max_rtt_ms,
            avg_loss_pct,
            down_rate
        FROM hourly_patterns
        WHERE hour = ?
        AND date > ?
        ORDER BY date DESC, host
    `

	cutoff := time.Now().UTC().AddDate(0, 0, -30).Format(time.DateOnly)
	rows, err := db.QueryContext(ctx, query, hour, cutoff)
	if err != nil {
		return nil, storeErr("DB.GetPatterns", err)
	}
	defer rows.Close()

	var patterns []models.PatternDetail
	for rows.Next() {
		var p models.PatternDetail
		var avgRTT, maxRTT, avgLoss sql.NullFloat64
		err := rows.Scan(&p.Date, &p.Host, &p.TotalScans, &p.DownScans,
			&avgRTT, &maxRTT, &avgLoss, &p.DownRate)
		if err != nil {
			return nil, storeErr("DB.GetPatterns", err)
		}
		p.AvgRTT = avgRTT.Float64
		p.MaxRTT = maxRTT.Float64
		p.AvgLossPct = avgLoss.Float64
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("DB.GetPatterns", err)
	}
	return patterns, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
