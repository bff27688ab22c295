package monitor

import (
	"context"

	"go.uber.org/zap"
)

// performMaintenance runs maintenance tasks
func (m *Monitor) performMaintenance() {
	if m.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, maintenanceTimeout)
	defer cancel()

	m.logger.Debug("running maintenance tasks")

	// Aggregate hourly patterns for heatmap
	if err := m.db.AggregateHourlyPatterns(ctx); err != nil {
		m.logger.Error("failed to aggregate hourly patterns", zap.Error(err))
	}

	// Zero retention keeps history forever
	if retention := m.config.Load().Retention; retention > 0 {
		n, err := m.db.PruneBefore(ctx, m.now().Add(-retention))
		if err != nil {
			m.logger.Error("failed to prune history", zap.Error(err))
		} else if n > 0 {
			m.logger.Info("pruned history", zap.Int64("rows", n))
		}
	}

	m.logger.Debug("maintenance complete")
}
