package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"netdiag/internal/models"
)

// minOutageRun is how many consecutive down results the summary treats as an
// outage.
const minOutageRun = 3

func writeTextReport(outputDir string, now time.Time, hours int, stats []models.Stats, series []hostSeries) error {
	filename := filepath.Join(outputDir, "summary.txt")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Network Diagnostics Report\n")
	fmt.Fprintf(file, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Period: Last %d hours\n\n", hours)
	fmt.Fprintln(file, strings.Repeat("=", 60))

	fmt.Fprintln(file, "\nOVERALL STATISTICS")
	for _, s := range stats {
		uptime := 0.0
		if s.TotalScans > 0 {
			uptime = float64(s.UpScans) / float64(s.TotalScans) * 100
		}

		fmt.Fprintf(file, "Host: %s\n", s.Host)
		fmt.Fprintf(file, "  Total Scans: %d\n", s.TotalScans)
		fmt.Fprintf(file, "  Up: %d (%.2f%%)\n", s.UpScans, uptime)
		fmt.Fprintf(file, "  Packet Loss: %.2f%%\n", s.PacketLossPct)
		if s.UpScans > 0 {
			fmt.Fprintf(file, "  Average RTT: %.2f ms\n", s.AvgRTT)
			fmt.Fprintf(file, "  Min RTT: %.2f ms\n", s.MinRTT)
			fmt.Fprintf(file, "  Max RTT: %.2f ms\n", s.MaxRTT)
		}
		fmt.Fprintln(file)
	}

	fmt.Fprintln(file, strings.Repeat("=", 60))

	fmt.Fprintf(file, "\nOUTAGE PERIODS (%d+ consecutive down scans)\n", minOutageRun)
	outages := findOutages(series, minOutageRun)
	for i, o := range outages {
		fmt.Fprintf(file, "Outage #%d\n", i+1)
		fmt.Fprintf(file, "  Host: %s\n", o.host)
		fmt.Fprintf(file, "  Start: %s\n", o.start.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(file, "  End: %s\n", o.end.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(file, "  Duration: %s\n", o.end.Sub(o.start))
		fmt.Fprintf(file, "  Down Scans: %d\n", o.down)
		fmt.Fprintln(file)
	}

	if len(outages) == 0 {
		fmt.Fprintln(file, "No significant outages detected.")
	} else {
		fmt.Fprintf(file, "\nTotal Outages: %d\n", len(outages))
	}

	fmt.Fprintln(file, strings.Repeat("=", 60))
	fmt.Fprintln(file, "\nCharts and the raw history (history.xlsx) are in the same directory.")

	return nil
}
