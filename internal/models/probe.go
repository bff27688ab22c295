package models

import "time"

// Status is the reachability classification of a host for one scan cycle.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// ProbeResult represents one host's outcome for one scan cycle
type ProbeResult struct {
	Timestamp       time.Time `json:"timestamp"`
	Host            string    `json:"host"`
	Status          Status    `json:"status"`
	MinMS           *float64  `json:"min_ms"` // nil unless up
	AvgMS           *float64  `json:"avg_ms"`
	MaxMS           *float64  `json:"max_ms"`
	PacketLossPct   float64   `json:"packet_loss_pct"`
	PacketsSent     int       `json:"packets_sent"`
	PacketsReceived int       `json:"packets_received"`
}

// Up reports whether the host answered at least one probe.
func (r ProbeResult) Up() bool {
	return r.Status == StatusUp
}

// DownResult builds the synthetic result used for hosts that produced no
// usable summary line.
func DownResult(host string, ts time.Time) ProbeResult {
	return ProbeResult{
		Timestamp:     ts,
		Host:          host,
		Status:        StatusDown,
		PacketLossPct: 100.0,
	}
}

// ScanCycle is the immutable result set of one probe-parse-store-cache run.
// Results are ordered the same way as Hosts.
type ScanCycle struct {
	ID        string        `json:"id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Hosts     []string      `json:"hosts"`
	Results   []ProbeResult `json:"results"`
}

// Empty reports whether the cycle carries no results.
func (c ScanCycle) Empty() bool {
	return len(c.Results) == 0
}

// Result returns the result recorded for host.
func (c ScanCycle) Result(host string) (ProbeResult, bool) {
	for _, r := range c.Results {
		if r.Host == host {
			return r, true
		}
	}
	return ProbeResult{}, false
}

// Clone returns a deep copy of the cycle.
func (c ScanCycle) Clone() ScanCycle {
	out := ScanCycle{ID: c.ID, Timestamp: c.Timestamp}
	if c.Hosts != nil {
		out.Hosts = append([]string(nil), c.Hosts...)
	}
	if c.Results != nil {
		out.Results = make([]ProbeResult, len(c.Results))
		for i, r := range c.Results {
			r.MinMS = cloneFloat(r.MinMS)
			r.AvgMS = cloneFloat(r.AvgMS)
			r.MaxMS = cloneFloat(r.MaxMS)
			out.Results[i] = r
		}
	}
	return out
}

// NewScanCycle orders results by the requested host list. Hosts without a
// result are reconciled as down.
func NewScanCycle(id string, ts time.Time, hosts []string, results map[string]ProbeResult) ScanCycle {
	c := ScanCycle{
		ID:        id,
		Timestamp: ts,
		Hosts:     append([]string(nil), hosts...),
		Results:   make([]ProbeResult, 0, len(hosts)),
	}
	seen := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		r, ok := results[h]
		if !ok {
			r = DownResult(h, ts)
		}
		c.Results = append(c.Results, r)
	}
	return c
}

// HistoryRecord is a persisted ProbeResult
type HistoryRecord struct {
	ID      int64  `json:"id"`
	CycleID string `json:"cycle_id,omitempty"`
	ProbeResult
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
