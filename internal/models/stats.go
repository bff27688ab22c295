package models

import "time"

// Stats represents aggregated statistics for a host
type Stats struct {
	Host          string  `json:"host"`
	TotalScans    int     `json:"total_scans"`
	UpScans       int     `json:"up_scans"`
	AvgRTT        float64 `json:"avg_rtt"`
	MaxRTT        float64 `json:"max_rtt"`
	MinRTT        float64 `json:"min_rtt"`
	PacketLossPct float64 `json:"packet_loss_pct"`
}

// Outage represents a period of consecutive down results for a host
type Outage struct {
	Host        string    `json:"host"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DownResults int       `json:"down_results"`
	Duration    string    `json:"duration"`
}

// HeatmapPoint represents a data point for the heatmap visualization
type HeatmapPoint struct {
	Hour         int     `json:"hour"`
	Host         string  `json:"host"`
	DownRate     float64 `json:"down_rate"`
	AvgLatency   float64 `json:"avg_latency"`
	MaxLatency   float64 `json:"max_latency"`
	AvgLossPct   float64 `json:"avg_loss_pct"`
	TotalDown    int     `json:"total_down"`
	TotalScans   int     `json:"total_scans"`
	DaysWithData int     `json:"days_with_data"`
}

// PatternDetail represents detailed pattern data for a specific hour
type PatternDetail struct {
	Date       string  `json:"date"`
	Host       string  `json:"host"`
	TotalScans int     `json:"total_scans"`
	DownScans  int     `json:"down_scans"`
	AvgRTT     float64 `json:"avg_rtt"`
	MaxRTT     float64 `json:"max_rtt"`
	AvgLossPct float64 `json:"avg_loss_pct"`
	DownRate   float64 `json:"down_rate"`
}
