package observability

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Observer receives one report per finished use case.
type Observer interface {
	ObserveOperation(op string, duration time.Duration, err error)
}

type Noop struct{}

func (Noop) ObserveOperation(string, time.Duration, error) {}

// Multi fans a report out to every observer in order.
type Multi []Observer

func (m Multi) ObserveOperation(op string, duration time.Duration, err error) {
	for _, o := range m {
		if o != nil {
			o.ObserveOperation(op, duration, err)
		}
	}
}

type LatencyLogger struct {
	logger *log.Logger
}

func NewLatencyLogger(logger *log.Logger) *LatencyLogger {
	return &LatencyLogger{logger: logger}
}

func (l *LatencyLogger) ObserveOperation(op string, duration time.Duration, err error) {
	if l == nil || l.logger == nil {
		return
	}
	ms := float64(duration.Microseconds()) / 1000.0
	if err != nil {
		l.logger.Printf("rule_op_latency op=%s duration_ms=%.3f outcome=error code=%s", op, ms, errorCode(err))
		return
	}
	l.logger.Printf("rule_op_latency op=%s duration_ms=%.3f outcome=ok", op, ms)
}

// AsyncObserver hands reports to next on a background goroutine. Reports
// arriving while the buffer is full, or after Close, are counted and dropped.
type AsyncObserver struct {
	next    Observer
	events  chan operationEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type operationEvent struct {
	op       string
	duration time.Duration
	err      error
}

func NewAsyncObserver(next Observer, buffer int) *AsyncObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncObserver{
		next:   next,
		events: make(chan operationEvent, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			if o.next == nil {
				continue
			}
			o.next.ObserveOperation(ev.op, ev.duration, ev.err)
		}
	}()

	return o
}

func (o *AsyncObserver) ObserveOperation(op string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- operationEvent{op: op, duration: duration, err: err}:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close flushes buffered reports and stops the worker. Safe to call twice.
func (o *AsyncObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
