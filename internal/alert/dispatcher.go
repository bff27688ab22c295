package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"netdiag/internal/models"
)

// DefaultSendTimeout bounds one delivery attempt on one channel.
const DefaultSendTimeout = 5 * time.Second

// Sender delivers a single alert to an external channel.
type Sender interface {
	Send(ctx context.Context, event models.AlertEvent) error
}

// Dispatcher delivers alerts in the background. Each channel runs in its own
// goroutine with its own per-send timeout, so a stalled channel only loses
// its own deliveries.
type Dispatcher struct {
	senders []Sender
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher for the given channels. Nil senders are
// ignored; with none left Dispatch is a no-op.
func NewDispatcher(logger *zap.Logger, timeout time.Duration, senders ...Sender) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{logger: logger, timeout: timeout}
	for _, s := range senders {
		if s != nil {
			d.senders = append(d.senders, s)
		}
	}
	return d
}

// Dispatch sends events asynchronously and returns immediately. Every
// channel receives the events in order.
func (d *Dispatcher) Dispatch(events []models.AlertEvent) {
	if len(d.senders) == 0 || len(events) == 0 {
		return
	}

	batch := append([]models.AlertEvent(nil), events...)
	for _, s := range d.senders {
		d.wg.Add(1)
		go func(s Sender) {
			defer d.wg.Done()
			for _, ev := range batch {
				d.send(s, ev)
			}
		}(s)
	}
}

func (d *Dispatcher) send(s Sender, ev models.AlertEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := s.Send(ctx, ev); err != nil {
		d.logger.Error("alert delivery failed",
			zap.String("channel", fmt.Sprintf("%T", s)),
			zap.String("host", ev.Host),
			zap.String("type", string(ev.Kind)),
			zap.Error(err),
		)
	}
}

// Wait blocks until all in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
