// Package monitor runs scan cycles on a schedule and on demand, and keeps
// the history store maintained.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"netdiag/internal/alert"
	"netdiag/internal/cache"
	"netdiag/internal/config"
	"netdiag/internal/models"
)

const maintenanceTimeout = 5 * time.Minute

// Monitor coordinates scan cycles, alerting and maintenance
type Monitor struct {
	config     *config.Holder
	db         models.Database
	prober     models.Prober
	cache      *cache.Cache
	dispatcher *alert.Dispatcher
	logger     *zap.Logger

	newID func() string
	now   func() time.Time

	cron   *cron.Cron
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Monitor. dispatcher may be nil when alerts are not
// delivered anywhere.
func New(cfg *config.Holder, db models.Database, prober models.Prober, c *cache.Cache, dispatcher *alert.Dispatcher, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		config:     cfg,
		db:         db,
		prober:     prober,
		cache:      c,
		dispatcher: dispatcher,
		logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins scheduled scanning and maintenance
func (m *Monitor) Start() error {
	cfg := m.config.Load()

	m.cron = cron.New(
		cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(m.logger))),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := m.cron.AddFunc(cfg.MaintenanceSchedule, m.performMaintenance); err != nil {
		return err
	}

	m.wg.Add(1)
	go m.scanWorker()

	// Run maintenance immediately on start
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.performMaintenance()
	}()
	m.cron.Start()

	m.logger.Info("monitor started",
		zap.Strings("targets", cfg.Targets),
		zap.Duration("interval", cfg.ScanInterval),
		zap.String("maintenance", cfg.MaintenanceSchedule),
	)
	return nil
}

// Stop gracefully stops the monitor
func (m *Monitor) Stop() {
	m.logger.Info("stopping monitor")
	m.cancel()
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}

// Wait blocks until all goroutines and pending alert deliveries finish
func (m *Monitor) Wait() {
	m.wg.Wait()
	if m.dispatcher != nil {
		m.dispatcher.Wait()
	}
	m.logger.Info("monitor stopped")
}
