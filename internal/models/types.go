package models

import (
	"context"
	"time"
)

// Database interface defines operations for history persistence
type Database interface {
	Append(ctx context.Context, cycle ScanCycle) error
	Query(ctx context.Context, host string, since time.Time) ([]HistoryRecord, error)
	GetStats(ctx context.Context, hours int) ([]Stats, error)
	GetOutages(ctx context.Context, days int) ([]Outage, error)
	GetHeatmapData(ctx context.Context, days int) ([]HeatmapPoint, error)
	GetPatterns(ctx context.Context, hour int) ([]PatternDetail, error)
	AggregateHourlyPatterns(ctx context.Context) error
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// Prober runs one bulk probe over a batch of hosts and returns the raw
// combined output of the probe tool
type Prober interface {
	Probe(ctx context.Context, hosts []string, count int, timeoutPerHost time.Duration) (string, error)
}

// Scanner runs one complete scan cycle
type Scanner interface {
	RunScan(ctx context.Context, hosts []string) ScanCycle
}

// SnapshotReader exposes the most recent completed scan cycle
type SnapshotReader interface {
	Get() ScanCycle
	Updated() time.Time
}
