// Command netdiag-report writes charts, a text summary and a spreadsheet from
// the stored scan history, for sharing outside the service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"netdiag/internal/config"
	"netdiag/internal/database"
	"netdiag/internal/logging"
	"netdiag/internal/report"
)

func main() {
	outDir := flag.String("out", "reports", "Output directory for reports")
	hours := flag.Int("hours", 24, "Hours of history to include")

	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "netdiag-report:", err)
		os.Exit(1)
	}
	if *hours <= 0 {
		fmt.Fprintln(os.Stderr, "netdiag-report: -hours must be positive")
		os.Exit(2)
	}

	logger, err := logging.NewLogger(cfg.LogDir, strings.ToLower(cfg.LogLevel))
	if err != nil {
		fmt.Fprintln(os.Stderr, "netdiag-report:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		logger.Fatal("failed to initialize database schema", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir, err := report.NewGenerator(db, logger.Named("report")).GenerateReport(ctx, *outDir, *hours)
	if err != nil {
		logger.Error("report generation failed", zap.Error(err))
		return
	}
	logger.Info("report generated", zap.String("dir", dir))
	fmt.Println(dir)
}
