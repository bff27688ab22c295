package client

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"netdiag/internal/models"
)

// PrintResults writes a table of results sorted by host. verbose appends the
// raw JSON.
func PrintResults(w io.Writer, results map[string]models.ProbeResult, verbose bool) error {
	hosts := make([]string, 0, len(results))
	for h := range results {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tSTATUS\tAVG LATENCY\tLOSS %\tPACKETS")
	for _, h := range hosts {
		r := results[h]
		avg := "N/A"
		if r.AvgMS != nil {
			avg = fmt.Sprintf("%.2fms", *r.AvgMS)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%d/%d\n",
			h, strings.ToUpper(string(r.Status)), avg, r.PacketLossPct, r.PacketsSent, r.PacketsReceived)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if verbose {
		b, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s\n", b)
	}
	return nil
}

// PrintHistory writes one line per stored result, newest first.
func PrintHistory(w io.Writer, records []models.HistoryRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tSTATUS\tAVG LATENCY\tLOSS %")
	for _, r := range records {
		avg := "N/A"
		if r.AvgMS != nil {
			avg = fmt.Sprintf("%.2fms", *r.AvgMS)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"), strings.ToUpper(string(r.Status)), avg, r.PacketLossPct)
	}
	return tw.Flush()
}
