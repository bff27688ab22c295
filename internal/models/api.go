package models

import "time"

// ResultsResponse carries one cycle's results keyed by host, as served by
// the scan and results endpoints.
type ResultsResponse struct {
	Timestamp time.Time              `json:"timestamp"`
	CycleID   string                 `json:"cycle_id,omitempty"`
	Results   map[string]ProbeResult `json:"results"`
}

// NewResultsResponse indexes a cycle's results by host.
func NewResultsResponse(cycle ScanCycle) ResultsResponse {
	resp := ResultsResponse{
		Timestamp: cycle.Timestamp,
		CycleID:   cycle.ID,
		Results:   make(map[string]ProbeResult, len(cycle.Results)),
	}
	for _, r := range cycle.Results {
		resp.Results[r.Host] = r
	}
	return resp
}

// HistoryResponse is the stored history of one host.
type HistoryResponse struct {
	Host    string          `json:"host"`
	Hours   int             `json:"hours"`
	History []HistoryRecord `json:"history"`
}
