// Package pipeline hands voice samples from the audio side over to the
// single tick goroutine that owns world and reaction state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/observability"
)

// ErrDispatcherStopped is returned by health checks once the loop has exited
var ErrDispatcherStopped = errors.New("dispatcher stopped")

// DispatcherConfig configures the tick loop
type DispatcherConfig struct {
	TickRate  int // ticks per second
	QueueSize int // tasks waiting for the tick goroutine
}

// Dispatcher owns the tick goroutine. Tasks queued with Dispatch and the
// periodic tick callback all run on it, one at a time, in order.
type Dispatcher struct {
	queue    chan func()
	interval time.Duration
	onTick   func()

	running  atomic.Bool
	lastTick atomic.Int64 // unix nanos

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher calling onTick TickRate times per second
func NewDispatcher(cfg DispatcherConfig, onTick func(), metrics *observability.Metrics, logger zerolog.Logger) *Dispatcher {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 20
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if onTick == nil {
		onTick = func() {}
	}

	return &Dispatcher{
		queue:    make(chan func(), cfg.QueueSize),
		interval: time.Second / time.Duration(cfg.TickRate),
		onTick:   onTick,
		stop:     make(chan struct{}),
		metrics:  metrics,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Start launches the tick goroutine. It exits when ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.running.CompareAndSwap(false, true) {
		return
	}
	d.lastTick.Store(time.Now().UnixNano())

	d.wg.Add(1)
	go d.loop(ctx)
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	defer d.running.Store(false)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case fn := <-d.queue:
			d.run(fn)
		case now := <-ticker.C:
			d.lastTick.Store(now.UnixNano())
			d.run(d.onTick)
		}
	}
}

// run executes one task; a panicking task is logged and the loop goes on
func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("Tick task failed")
			d.metrics.RecordError("panic", "dispatcher")
		}
	}()
	fn()
}

// Dispatch queues fn for the tick goroutine without blocking. It returns
// false when the queue is full or the dispatcher is not running.
func (d *Dispatcher) Dispatch(fn func()) bool {
	if !d.running.Load() {
		return false
	}
	select {
	case d.queue <- fn:
		return true
	default:
		d.metrics.RecordDroppedFrame("dispatch_full")
		return false
	}
}

// Stop ends the tick goroutine and waits for it to exit. Queued tasks that
// have not started are discarded.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
}

// Pending returns the number of queued tasks
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// HealthCheck fails when the loop has exited or has not ticked for maxLag
func (d *Dispatcher) HealthCheck(maxLag time.Duration) observability.HealthCheckFunc {
	return func(ctx context.Context) (bool, error) {
		if !d.running.Load() {
			return false, ErrDispatcherStopped
		}
		lag := time.Since(time.Unix(0, d.lastTick.Load()))
		if lag > maxLag {
			return false, fmt.Errorf("tick loop stalled for %s", lag.Round(time.Millisecond))
		}
		return true, nil
	}
}
