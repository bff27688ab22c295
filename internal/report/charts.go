package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"netdiag/internal/models"
)

var (
	chartPadding = chart.Style{
		Padding: chart.Box{
			Top:    20,
			Left:   20,
			Right:  20,
			Bottom: 20,
		},
	}
	axisStyle = chart.Style{
		StrokeColor: drawing.ColorBlack,
		FontSize:    10,
	}
	gridStyle = chart.Style{
		StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
		StrokeWidth: 1.0,
	}
)

// writeLatencyCharts draws one average-RTT chart per host from its up results.
func writeLatencyCharts(outputDir string, series []hostSeries) error {
	for _, s := range series {
		var xs []time.Time
		var ys []float64
		for _, r := range s.records {
			if r.Up() && r.AvgMS != nil {
				xs = append(xs, r.Timestamp)
				ys = append(ys, *r.AvgMS)
			}
		}
		// go-chart needs at least two points to establish a range
		if len(xs) < 2 {
			continue
		}

		graph := chart.Chart{
			Title:      fmt.Sprintf("Network Latency - %s", s.host),
			TitleStyle: chart.Style{FontSize: 16},
			Background: chartPadding,
			Width:      1200,
			Height:     400,
			XAxis: chart.XAxis{
				Name:           "Time",
				NameStyle:      chart.Style{FontSize: 12},
				Style:          axisStyle,
				ValueFormatter: chart.TimeMinuteValueFormatter,
			},
			YAxis: chart.YAxis{
				Name:           "Latency (ms)",
				NameStyle:      chart.Style{FontSize: 12},
				Style:          axisStyle,
				GridMajorStyle: gridStyle,
				Range:          latencyRange(ys),
			},
			Series: []chart.Series{
				chart.TimeSeries{
					Name: s.host,
					Style: chart.Style{
						StrokeColor: chart.GetDefaultColor(0),
						StrokeWidth: 2,
					},
					XValues: xs,
					YValues: ys,
				},
			},
		}

		// Add moving average
		if len(ys) > 10 {
			ts := graph.Series[0].(chart.TimeSeries)
			graph.Series = append(graph.Series, chart.SMASeries{
				Name: "Moving Avg",
				Style: chart.Style{
					StrokeColor:     chart.GetDefaultColor(1),
					StrokeWidth:     2,
					StrokeDashArray: []float64{5, 5},
				},
				InnerSeries: ts,
				Period:      10,
			})
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("latency_%s.png", sanitizeFilename(s.host)))
		if err := savePNG(filename, graph.Render); err != nil {
			return err
		}
	}
	return nil
}

// latencyRange pads a flat series so the axis never has a zero span.
func latencyRange(ys []float64) chart.Range {
	lo, hi := ys[0], ys[0]
	for _, y := range ys[1:] {
		lo = min(lo, y)
		hi = max(hi, y)
	}
	if hi > lo {
		return nil
	}
	return &chart.ContinuousRange{Min: max(0, lo-1), Max: hi + 1}
}

// writeAvailabilityChart plots the hourly share of up results per host.
func writeAvailabilityChart(outputDir string, series []hostSeries) error {
	var allSeries []chart.Series
	for i, s := range series {
		xs, ys := hourlyUptime(s.records)
		if len(xs) < 2 {
			continue
		}
		allSeries = append(allSeries, chart.TimeSeries{
			Name: s.host,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(i),
				StrokeWidth: 2,
			},
			XValues: xs,
			YValues: ys,
		})
	}
	if len(allSeries) == 0 {
		return nil
	}

	graph := chart.Chart{
		Title:      "Network Availability (Hourly)",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      1200,
		Height:     400,
		XAxis: chart.XAxis{
			Name:           "Time",
			Style:          axisStyle,
			ValueFormatter: chart.TimeHourValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Uptime %",
			Style: axisStyle,
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: 100,
			},
			GridMajorStyle: gridStyle,
		},
		Series: allSeries,
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	return savePNG(filepath.Join(outputDir, "availability.png"), graph.Render)
}

func hourlyUptime(records []models.HistoryRecord) ([]time.Time, []float64) {
	type bucket struct{ total, up int }
	buckets := map[time.Time]*bucket{}
	var hours []time.Time
	for _, r := range records {
		h := r.Timestamp.UTC().Truncate(time.Hour)
		b, ok := buckets[h]
		if !ok {
			b = &bucket{}
			buckets[h] = b
			hours = append(hours, h)
		}
		b.total++
		if r.Up() {
			b.up++
		}
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	ys := make([]float64, len(hours))
	for i, h := range hours {
		b := buckets[h]
		ys[i] = float64(b.up) / float64(b.total) * 100
	}
	return hours, ys
}

// writeOutageChart counts down results per hour across all hosts.
func writeOutageChart(outputDir string, records []models.HistoryRecord) error {
	hourlyOutages := map[string]int{}
	for _, r := range records {
		if !r.Up() {
			hourlyOutages[r.Timestamp.UTC().Format("2006-01-02 15:00")]++
		}
	}
	if len(hourlyOutages) == 0 {
		return nil
	}

	labels := make([]string, 0, len(hourlyOutages))
	for h := range hourlyOutages {
		labels = append(labels, h)
	}
	sort.Strings(labels)

	values := make([]chart.Value, 0, len(labels))
	for _, h := range labels {
		values = append(values, chart.Value{Label: h, Value: float64(hourlyOutages[h])})
	}
	peak := 0
	for _, n := range hourlyOutages {
		peak = max(peak, n)
	}

	graph := chart.BarChart{
		Title:      "Down Results by Hour",
		TitleStyle: chart.Style{FontSize: 16},
		Background: chartPadding,
		Width:      1200,
		Height:     400,
		Bars:       values,
		BarWidth:   40,
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(peak)},
		},
	}

	return savePNG(filepath.Join(outputDir, "outage_frequency.png"), graph.Render)
}

func savePNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(chart.PNG, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// hostFileChars maps host characters that are unsafe in file names, which
// covers IPv6 literals and zone suffixes.
var hostFileChars = strings.NewReplacer(
	"[", "", "]", "",
	".", "_", ":", "_", "%", "_",
	"/", "_", "\\", "_", " ", "_",
)

func sanitizeFilename(host string) string {
	return hostFileChars.Replace(host)
}
