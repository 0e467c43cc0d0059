package sink

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/herlein/rfalarm/pkg/ev1527"
)

// DispatchStats counts what happened to delivered codes
type DispatchStats struct {
	Queued    uint64
	Delivered uint64
	Dropped   uint64 // queue full or dispatcher closed
	Failed    uint64 // sink returned an error
}

func (s DispatchStats) String() string {
	return fmt.Sprintf("queued=%d delivered=%d dropped=%d failed=%d",
		s.Queued, s.Delivered, s.Dropped, s.Failed)
}

// Dispatcher moves codes off the pipeline's task context onto a goroutine
// that feeds a sink. Its Deliver never blocks: when the queue is full the
// event is dropped and counted.
type Dispatcher struct {
	sink  Sink
	queue chan Event
	done  chan struct{}

	// Name maps a code to a paired device name (optional)
	Name func(ev1527.Code) string

	// Debug callback (optional)
	DebugLog func(format string, args ...interface{})

	mu     sync.Mutex
	closed bool

	queued, delivered, dropped, failed atomic.Uint64
}

// NewDispatcher starts a dispatcher with room for depth pending events.
func NewDispatcher(sink Sink, depth int) *Dispatcher {
	if depth < 1 {
		depth = 1
	}
	d := &Dispatcher{
		sink:  sink,
		queue: make(chan Event, depth),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) debug(format string, args ...interface{}) {
	if d.DebugLog != nil {
		d.DebugLog(format, args...)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.sink.Deliver(ev); err != nil {
			d.failed.Add(1)
			d.debug("sink: %s: %v", ev.Code, err)
			continue
		}
		d.delivered.Add(1)
	}
}

// Deliver queues code. It has the signature pipeline.Register expects.
func (d *Dispatcher) Deliver(code ev1527.Code) {
	var device string
	if d.Name != nil {
		device = d.Name(code)
	}
	ev := NewEvent(code, device, time.Now())

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}
	select {
	case d.queue <- ev:
		d.queued.Add(1)
	default:
		d.dropped.Add(1)
		d.debug("sink: queue full, dropped %s", code)
	}
}

// Close delivers what is queued, then closes the sink.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	return d.sink.Close()
}

// Stats returns the dispatcher counters
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Queued:    d.queued.Load(),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
