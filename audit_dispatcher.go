package goTenantAuth

import (
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples audit emission from the request path. Events are
// queued on a buffered channel and written by a single goroutine; when the
// queue is full the event is counted as dropped instead of blocking.
type auditDispatcher struct {
	sink    AuditSink
	events  chan AuditEvent
	dropped atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

func newAuditDispatcher(sink AuditSink, buffer int) *auditDispatcher {
	d := &auditDispatcher{
		sink:   sink,
		events: make(chan AuditEvent, buffer),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	for ev := range d.events {
		d.sink.Write(ev)
	}
	close(d.done)
}

// emit never blocks. Full queue drops the event and bumps the counter.
func (d *auditDispatcher) emit(ev AuditEvent) {
	select {
	case d.events <- ev:
	default:
		d.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded due to a full queue.
func (d *auditDispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close drains the queue and stops the worker. Safe to call more than once.
func (d *auditDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.events)
		<-d.done
	})
}
