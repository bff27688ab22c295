package web

import (
	"fmt"
	"net/http"
	"strings"
)

// handleMetrics writes the latest cycle in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	cycle := s.cache.Get()

	var b strings.Builder
	b.WriteString("# HELP netdiag_last_scan_timestamp_seconds Unix time of the latest completed scan.\n")
	b.WriteString("# TYPE netdiag_last_scan_timestamp_seconds gauge\n")
	var last int64
	if !cycle.Empty() {
		last = cycle.Timestamp.Unix()
	}
	fmt.Fprintf(&b, "netdiag_last_scan_timestamp_seconds %d\n", last)

	b.WriteString("# HELP netdiag_host_up Whether the host answered in the latest scan (1=up, 0=down).\n")
	b.WriteString("# TYPE netdiag_host_up gauge\n")
	for _, r := range cycle.Results {
		up := 0
		if r.Up() {
			up = 1
		}
		fmt.Fprintf(&b, "netdiag_host_up{host=\"%s\"} %d\n", sanitizePrometheusLabel(r.Host), up)
	}

	b.WriteString("# HELP netdiag_packet_loss_percent Packet loss in the latest scan.\n")
	b.WriteString("# TYPE netdiag_packet_loss_percent gauge\n")
	for _, r := range cycle.Results {
		fmt.Fprintf(&b, "netdiag_packet_loss_percent{host=\"%s\"} %g\n", sanitizePrometheusLabel(r.Host), r.PacketLossPct)
	}

	b.WriteString("# HELP netdiag_rtt_milliseconds Round-trip time in the latest scan.\n")
	b.WriteString("# TYPE netdiag_rtt_milliseconds gauge\n")
	for _, r := range cycle.Results {
		host := sanitizePrometheusLabel(r.Host)
		stats := []struct {
			name string
			v    *float64
		}{{"min", r.MinMS}, {"avg", r.AvgMS}, {"max", r.MaxMS}}
		for _, st := range stats {
			if st.v == nil {
				continue
			}
			fmt.Fprintf(&b, "netdiag_rtt_milliseconds{host=\"%s\", stat=\"%s\"} %g\n", host, st.name, *st.v)
		}
	}

	w.Write([]byte(b.String()))
}

// sanitizePrometheusLabel escapes backslash, double-quote, and newline
// characters in a Prometheus label value per the text exposition format.
func sanitizePrometheusLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
