// Package alert turns completed scan cycles into threshold alerts and hands
// them to delivery channels.
package alert

import "netdiag/internal/models"

// Thresholds are the configured alert limits.
type Thresholds struct {
	LossPct   float64
	LatencyMS float64
}

// Evaluate returns at most one alert per host, in the cycle's result order.
// A down host raises HostDown; otherwise loss above the limit raises
// HighLoss; otherwise an average latency above the limit raises HighLatency.
func Evaluate(cycle models.ScanCycle, lossThresholdPct, latencyThresholdMS float64) []models.AlertEvent {
	var events []models.AlertEvent
	for _, r := range cycle.Results {
		ts := r.Timestamp
		if ts.IsZero() {
			ts = cycle.Timestamp
		}

		switch {
		case !r.Up():
			events = append(events, models.AlertEvent{
				Kind:      models.AlertHostDown,
				Host:      r.Host,
				Value:     100.0,
				Threshold: lossThresholdPct,
				Timestamp: ts,
			})
		case r.PacketLossPct > lossThresholdPct:
			events = append(events, models.AlertEvent{
				Kind:      models.AlertHighLoss,
				Host:      r.Host,
				Value:     r.PacketLossPct,
				Threshold: lossThresholdPct,
				Timestamp: ts,
			})
		case r.AvgMS != nil && *r.AvgMS > latencyThresholdMS:
			events = append(events, models.AlertEvent{
				Kind:      models.AlertHighLatency,
				Host:      r.Host,
				Value:     *r.AvgMS,
				Threshold: latencyThresholdMS,
				Timestamp: ts,
			})
		}
	}
	return events
}

// EvaluateWith is Evaluate with a Thresholds value.
func EvaluateWith(cycle models.ScanCycle, th Thresholds) []models.AlertEvent {
	return Evaluate(cycle, th.LossPct, th.LatencyMS)
}
