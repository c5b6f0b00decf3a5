package mailer

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher feeds queued messages to a single sending worker. Enqueue never
// blocks: the password-reset response must not wait on delivery, and a
// delivery failure must not fail the request that queued it.
type Dispatcher struct {
	queue  chan Message
	sender Sender
	log    *slog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDispatcher(sender Sender, queueSize int, log *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		queue:  make(chan Message, queueSize),
		sender: sender,
		log:    log,
	}
}

// Start launches the worker. ctx cancellation stops it after the in-flight
// send finishes.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case msg, ok := <-d.queue:
				if !ok {
					return
				}
				if err := d.sender.Send(ctx, msg); err != nil {
					d.log.Error("email delivery failed", "to", msg.To, "subject", msg.Subject, "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Enqueue submits a message for delivery. When the queue is full the message
// is dropped with a log line rather than blocking the caller.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.log.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

// Close drains the queue and waits for the worker to exit.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
