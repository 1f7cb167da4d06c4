package mailer

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/moi/internal/logging"
)

// Dispatcher delivers messages on a fixed set of worker goroutines fed by a
// bounded queue. Jobs are detached from the submitting request.
//
// Delivery is at-most-once: a full queue drops the message, and a failed
// send is logged and not retried.
type Dispatcher struct {
	sender Sender
	logger logging.Logger
	queue  chan Message

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines that drain a queue of queueSize.
func NewDispatcher(sender Sender, workers, queueSize int, logger logging.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &Dispatcher{
		sender: sender,
		logger: logger.With("module", "mailer"),
		queue:  make(chan Message, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Submit enqueues msg without blocking. It returns false when the message
// was dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Submit(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn(context.Background(), "mail dispatcher closed, message dropped", "to", msg.To)
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn(context.Background(), "mail queue full, message dropped", "to", msg.To)
		return false
	}
}

// Close stops accepting messages and waits until queued ones are handled.
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

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx := context.Background()
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Error(ctx, "failed to send email", "to", msg.To, "subject", msg.Subject, "error", err)
			continue
		}
		d.logger.Info(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	}
}
