package notification

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"Food-Rescue-Hub/internal/metrics"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 100
	sendTimeout      = 30 * time.Second
)

type (
	// Notifier accepts messages for asynchronous delivery. Enqueue never blocks
	// and reports whether the message was accepted.
	Notifier interface {
		Enqueue(msg Message) bool
	}

	// Dispatcher feeds a bounded queue to a fixed pool of workers that call the
	// sink. A full queue drops the message.
	Dispatcher struct {
		sink    Sink
		metrics *metrics.Metrics
		queue   chan Message

		mu     sync.RWMutex
		closed bool
		wg     sync.WaitGroup
	}
)

func NewDispatcher(sink Sink, workers, queueSize int, m *metrics.Metrics) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	d := &Dispatcher{
		sink:    sink,
		metrics: m,
		queue:   make(chan Message, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.run()
	}
	return d
}

func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.IncrementNotification("dropped")
		log.Warnw("notification dropped, dispatcher closed", "to", msg.To, "subject", msg.Subject)
		return false
	}

	select {
	case d.queue <- msg:
		d.metrics.SetQueueDepth(len(d.queue))
		return true
	default:
		d.metrics.IncrementNotification("dropped")
		log.Warnw("notification dropped, queue full", "to", msg.To, "subject", msg.Subject)
		return false
	}
}

// Close stops accepting messages and waits until queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	res := d.sink.Notify(ctx, msg)
	if !res.OK {
		d.metrics.IncrementNotification("failed")
		log.Errorw("notification failed", "to", msg.To, "subject", msg.Subject, "diagnostic", res.Diagnostic)
		return
	}
	d.metrics.IncrementNotification("sent")
}
