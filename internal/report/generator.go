// Package report renders offline evidence of network quality: charts, a
// text summary and a spreadsheet of the raw history.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"netdiag/internal/models"
)

// Source is the part of the history store a report reads from.
type Source interface {
	Range(ctx context.Context, from, to time.Time) ([]models.HistoryRecord, error)
	GetStats(ctx context.Context, hours int) ([]models.Stats, error)
}

// Generator creates static images and reports from scan history
type Generator struct {
	src    Source
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a new report generator
func NewGenerator(src Source, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{src: src, logger: logger, now: time.Now}
}

// GenerateReport writes a report covering the last hours into a new
// timestamped directory under outputDir and returns that directory.
// Individual artifacts that fail are logged and skipped.
func (g *Generator) GenerateReport(ctx context.Context, outputDir string, hours int) (string, error) {
	now := g.now()
	reportDir := filepath.Join(outputDir, fmt.Sprintf("network_report_%s", now.Format("2006-01-02_15-04-05")))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	records, err := g.src.Range(ctx, now.Add(-time.Duration(hours)*time.Hour), now.Add(time.Second))
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	stats, err := g.src.GetStats(ctx, hours)
	if err != nil {
		return "", fmt.Errorf("load stats: %w", err)
	}
	byHost := groupByHost(records)

	steps := []struct {
		name string
		run  func() error
	}{
		{"latency chart", func() error { return writeLatencyCharts(reportDir, byHost) }},
		{"availability chart", func() error { return writeAvailabilityChart(reportDir, byHost) }},
		{"outage summary", func() error { return writeOutageChart(reportDir, records) }},
		{"text report", func() error { return writeTextReport(reportDir, now, hours, stats, byHost) }},
		{"spreadsheet", func() error { return writeSpreadsheet(reportDir, records, stats) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			g.logger.Error("report step failed", zap.String("step", step.name), zap.Error(err))
		}
	}

	g.logger.Info("report generated", zap.String("dir", reportDir), zap.Int("records", len(records)))
	return reportDir, nil
}

type hostSeries struct {
	host    string
	records []models.HistoryRecord
}

// groupByHost keeps each host's records in time order and the hosts sorted
// by name so output is stable.
func groupByHost(records []models.HistoryRecord) []hostSeries {
	idx := map[string]int{}
	var out []hostSeries
	for _, r := range records {
		i, ok := idx[r.Host]
		if !ok {
			i = len(out)
			idx[r.Host] = i
			out = append(out, hostSeries{host: r.Host})
		}
		out[i].records = append(out[i].records, r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].host < out[b].host })
	return out
}

type outage struct {
	host  string
	start time.Time
	end   time.Time
	down  int
}

// findOutages returns runs of at least minRun consecutive down results,
// newest first.
func findOutages(series []hostSeries, minRun int) []outage {
	var out []outage
	for _, s := range series {
		var cur *outage
		flush := func() {
			if cur != nil && cur.down >= minRun {
				out = append(out, *cur)
			}
			cur = nil
		}
		for _, r := range s.records {
			if r.Up() {
				flush()
				continue
			}
			if cur == nil {
				cur = &outage{host: s.host, start: r.Timestamp}
			}
			cur.end = r.Timestamp
			cur.down++
		}
		flush()
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].start.After(out[b].start) })
	return out
}
