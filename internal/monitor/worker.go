package monitor

import (
	"time"

	"go.uber.org/zap"

	"netdiag/internal/alert"
)

// scanWorker scans the configured targets every ScanInterval and hands
// threshold alerts to the dispatcher.
func (m *Monitor) scanWorker() {
	defer m.wg.Done()

	interval := m.config.Load().ScanInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Immediate first scan
	m.performScan()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.performScan()
		}

		if next := m.config.Load().ScanInterval; next != interval {
			m.logger.Info("scan interval changed", zap.Duration("from", interval), zap.Duration("to", next))
			interval = next
			ticker.Reset(interval)
		}
	}
}

// performScan runs one scheduled cycle against the current snapshot.
func (m *Monitor) performScan() {
	cfg := m.config.Load()
	if len(cfg.Targets) == 0 {
		m.logger.Debug("no targets configured, skipping scheduled scan")
		return
	}

	cycle := m.RunScan(m.ctx, cfg.Targets)
	if cycle.Empty() {
		return
	}

	events := alert.Evaluate(cycle, cfg.AlertLossThresholdPct, cfg.AlertLatencyThresholdMS)
	if len(events) > 0 && m.dispatcher != nil {
		m.dispatcher.Dispatch(events)
	}
}
