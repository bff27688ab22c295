// Command netdiag runs the network diagnostics service: scheduled fping scans,
// alerting, history and the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"netdiag/internal/alert"
	"netdiag/internal/cache"
	"netdiag/internal/config"
	"netdiag/internal/database"
	"netdiag/internal/logging"
	"netdiag/internal/monitor"
	"netdiag/internal/notify"
	"netdiag/internal/ping"
	"netdiag/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "netdiag:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogDir, strings.ToLower(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", cfg.ServiceName))

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		return err
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		logger.Error("failed to initialize database schema", zap.Error(err))
		return err
	}

	pinger, err := ping.New(ping.WithBinary(cfg.FpingPath), ping.WithDeadlineMargin(cfg.DeadlineMargin))
	if err != nil {
		return err
	}

	notifiers, closeNotifiers := buildNotifiers(cfg, logger)
	defer closeNotifiers()

	holder := config.NewHolder(cfg)
	results := cache.New()
	dispatcher := alert.NewDispatcher(logger.Named("alert"), alert.DefaultSendTimeout, notifiers...)
	mon := monitor.New(holder, db, pinger, results, dispatcher, logger.Named("monitor"))
	server := web.New(holder, db, mon, results, logger.Named("web"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mon.Start(); err != nil {
		logger.Error("failed to start monitor", zap.Error(err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		mon.Stop()
		mon.Wait()
		return nil
	})

	return g.Wait()
}

// buildNotifiers collects every configured alert channel. The log channel is
// always present.
func buildNotifiers(cfg config.Config, logger *zap.Logger) ([]alert.Sender, func()) {
	m := []alert.Sender{notify.NewLog(logger.Named("alert"))}
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		m = append(m, s)
	}
	if d := notify.NewDiscord(cfg.DiscordWebhook); d != nil {
		m = append(m, d)
	}
	if w := notify.NewWebhook(cfg.WebhookURL); w != nil {
		m = append(m, w)
	}

	closeFn := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		k := notify.NewKafka(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		m = append(m, k)
		closeFn = func() {
			if err := k.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		}
	}
	return m, closeFn
}
