package bridge

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/observability"
	"github.com/lexiqai/voice-mechanics/internal/resilience"
)

const writeTimeout = 5 * time.Second

// writer owns all writes to the host connection. The tick goroutine hands
// it messages without blocking; a circuit breaker sheds directives while
// the host is not accepting writes.
type writer struct {
	conn    *websocket.Conn
	out     chan ServiceMessage
	breaker *resilience.CircuitBreaker
	done    chan struct{}

	metrics *observability.Metrics
	logger  zerolog.Logger
}

func newWriter(conn *websocket.Conn, queueSize int, breaker *resilience.CircuitBreaker, metrics *observability.Metrics, logger zerolog.Logger) *writer {
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(to))
		logger.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Directive circuit changed state")
	})

	return &writer{
		conn:    conn,
		out:     make(chan ServiceMessage, queueSize),
		breaker: breaker,
		done:    make(chan struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// send queues msg without blocking
func (w *writer) send(msg ServiceMessage) bool {
	select {
	case w.out <- msg:
		return true
	default:
		w.metrics.RecordDroppedFrame("outbound_full")
		return false
	}
}

func (w *writer) run() {
	defer close(w.done)

	for msg := range w.out {
		err := w.breaker.Call(func() error {
			if err := w.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return err
			}
			return w.conn.WriteJSON(msg)
		})

		switch {
		case err == nil:
		case errors.Is(err, resilience.ErrCircuitOpen):
			w.metrics.RecordDroppedFrame("circuit_open")
		default:
			observability.IncrementCircuitBreakerFailures(w.breaker.Name())
			w.metrics.RecordError("write", "bridge")
			w.logger.Warn().Err(err).Str("event", msg.Event).Msg("Failed to write to host")
		}
	}
}

// close stops the writer once every queued message is handled. Only call
// it after the tick goroutine has stopped sending.
func (w *writer) close() {
	close(w.out)
	<-w.done
}
