package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"netdiag/internal/models"
)

const (
	historySheet = "History"
	statsSheet   = "Stats"
)

var (
	historyHeaders = []interface{}{"id", "cycle_id", "timestamp", "host", "status", "min_ms", "avg_ms", "max_ms", "packet_loss_pct", "packets_sent", "packets_received"}
	statsHeaders   = []interface{}{"host", "total_scans", "up_scans", "avg_rtt", "min_rtt", "max_rtt", "packet_loss_pct"}
)

func writeSpreadsheet(outputDir string, records []models.HistoryRecord, stats []models.Stats) error {
	f, err := buildWorkbook(records, stats)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(filepath.Join(outputDir, "history.xlsx"))
}

func buildWorkbook(records []models.HistoryRecord, stats []models.Stats) (*excelize.File, error) {
	f := excelize.NewFile()
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(statsSheet); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(historySheet, "A1", &historyHeaders); err != nil {
		return nil, err
	}
	for i, r := range records {
		row := []interface{}{
			r.ID,
			r.CycleID,
			r.Timestamp.UTC().Format("2006-01-02 15:04:05.000"),
			r.Host,
			string(r.Status),
			cell(r.MinMS),
			cell(r.AvgMS),
			cell(r.MaxMS),
			r.PacketLossPct,
			r.PacketsSent,
			r.PacketsReceived,
		}
		if err := f.SetSheetRow(historySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetRow(statsSheet, "A1", &statsHeaders); err != nil {
		return nil, err
	}
	for i, s := range stats {
		row := []interface{}{s.Host, s.TotalScans, s.UpScans, s.AvgRTT, s.MinRTT, s.MaxRTT, s.PacketLossPct}
		if err := f.SetSheetRow(statsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	index, err := f.GetSheetIndex(historySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	return f, nil
}

// cell leaves missing latency blank instead of writing zero.
func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
