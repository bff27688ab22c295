package monitor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"netdiag/internal/models"
	"netdiag/internal/ping"
)

// RunScan probes hosts once and returns the completed cycle.
//
// A successful cycle is persisted and then published to the cache. When the
// probe times out every host is recorded as down in the store, but the cache
// keeps its previous snapshot and an empty cycle is returned. Any other probe
// failure yields an empty cycle with no side effects.
func (m *Monitor) RunScan(ctx context.Context, hosts []string) models.ScanCycle {
	hosts = uniqueHosts(hosts)
	if len(hosts) == 0 {
		m.logger.Warn("no hosts provided for scan")
		return models.ScanCycle{}
	}

	cfg := m.config.Load()
	id := m.newID()
	ts := m.now().UTC()
	log := m.logger.With(zap.String("cycle_id", id))
	log.Info("starting scan", zap.Int("hosts", len(hosts)))

	raw, err := m.prober.Probe(ctx, hosts, cfg.PingCount, cfg.PingTimeout)
	if err != nil {
		if errors.Is(err, ping.ErrProbeTimeout) {
			log.Error("scan timed out, recording all hosts as down", zap.Error(err))
			m.persist(ctx, log, models.NewScanCycle(id, ts, hosts, nil))
			return models.ScanCycle{}
		}
		log.Error("scan failed", zap.Error(err))
		return models.ScanCycle{}
	}

	results := ping.ParseWithTime(raw, hosts, ts, func(s ping.ParseSkip) {
		log.Debug("skipped fping line", zap.String("line", s.Line), zap.Error(s.Err))
	})
	cycle := models.NewScanCycle(id, ts, hosts, results)

	m.persist(ctx, log, cycle)
	m.cache.Set(cycle)

	up := 0
	for _, r := range cycle.Results {
		if r.Up() {
			up++
		}
	}
	log.Info("scan complete", zap.Int("up", up), zap.Int("down", len(cycle.Results)-up))
	return cycle
}

// persist failures are logged and never stop the cycle from being published.
func (m *Monitor) persist(ctx context.Context, log *zap.Logger, cycle models.ScanCycle) {
	if m.db == nil {
		return
	}
	if err := m.db.Append(ctx, cycle); err != nil {
		log.Error("failed to store results", zap.Error(err))
	}
}

func uniqueHosts(hosts []string) []string {
	seen := make(map[string]struct{}, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
