package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher delivers audit events asynchronously to a sink.
//
// Emit never blocks hot paths when DropIfFull is set: events beyond the
// buffer are counted and discarded instead of stalling the caller. The
// events channel is never closed; shutdown is signalled through done so
// an Emit racing Close cannot panic.
type Dispatcher struct {
	sink      Sink
	events    chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	enabled    bool
	dropIfFull bool
}

func NewDispatcher(sink Sink, cfg Config) *Dispatcher {
	if sink == nil {
		sink = NoOpSink{}
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 256
	}

	d := &Dispatcher{
		sink:       sink,
		events:     make(chan Event, buffer),
		done:       make(chan struct{}),
		enabled:    cfg.Enabled,
		dropIfFull: cfg.DropIfFull,
	}
	if d.enabled {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			// Drain whatever was queued before the close signal.
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues an event for delivery. Disabled or closed dispatchers
// discard silently.
func (d *Dispatcher) Emit(event Event) {
	if d == nil || !d.enabled || d.closed.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-d.done:
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close stops the dispatcher after draining queued events.
func (d *Dispatcher) Close() {
	if d == nil || !d.enabled {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}
