// Package driver calls the bot engine's Tick on a fixed period and fans the
// resulting reports out to subscribers.
package driver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/auto-buy-bot/internal/bot"
)

// Ticker is the engine entry point the driver invokes.
type Ticker interface {
	Tick(ctx context.Context) bot.TickReport
}

// Driver owns the tick loop. Subscribers receive the latest report only: a
// slow subscriber misses intermediate reports rather than blocking the loop.
type Driver struct {
	engine Ticker
	period time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	subs    map[int]chan bot.TickReport
	nextID  int
	last    *bot.TickReport
}

// New creates a Driver ticking every period.
func New(engine Ticker, period time.Duration, logger *zap.Logger) *Driver {
	if period <= 0 {
		period = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		engine: engine,
		period: period,
		logger: logger,
		subs:   make(map[int]chan bot.TickReport),
	}
}

// Start begins ticking, with the first tick immediately. Calling Start on a
// running driver does nothing. The loop ends when ctx is done or Stop is called.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	done := d.done
	d.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(d.period)
		defer ticker.Stop()

		d.TickNow(ctx)
		for {
			select {
			case <-ctx.Done():
				d.logger.Debug("driver loop stopped")
				return
			case <-ticker.C:
				d.TickNow(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()
	<-done
}

// TickNow runs one tick synchronously and publishes the report.
func (d *Driver) TickNow(ctx context.Context) bot.TickReport {
	rep := d.engine.Tick(ctx)
	for _, msg := range rep.Messages {
		d.logger.Info("tick", zap.String("message", msg))
	}
	d.publish(rep)
	return rep
}

// Subscribe returns a channel of tick reports and a function that unsubscribes
// and closes it.
func (d *Driver) Subscribe() (<-chan bot.TickReport, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	ch := make(chan bot.TickReport, 1)
	d.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subs, id)
			close(ch)
		})
	}
}

// Last returns the most recent report, if any tick has run.
func (d *Driver) Last() (bot.TickReport, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return bot.TickReport{}, false
	}
	return *d.last, true
}

func (d *Driver) publish(rep bot.TickReport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = &rep
	for _, ch := range d.subs {
		select {
		case ch <- rep:
		default:
			// Replace the unread report with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- rep:
			default:
			}
		}
	}
}
