package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
)

const (
	DefaultQueueSize   = 64
	DefaultSendTimeout = 10 * time.Second
)

// Dispatcher queues messages for a single worker goroutine. Submit never
// blocks: a full queue or a closed dispatcher drops the message.
type Dispatcher struct {
	next        Notifier
	logger      logging.Logger
	recorder    metrics.Recorder
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	done   chan struct{}
}

// NewDispatcher starts the worker. Close must be called to stop it.
func NewDispatcher(next Notifier, queueSize int, logger logging.Logger, recorder metrics.Recorder) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	d := &Dispatcher{
		next:        next,
		logger:      logger.With("module", "notify"),
		recorder:    recorder,
		sendTimeout: DefaultSendTimeout,
		queue:       make(chan Message, queueSize),
		done:        make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit enqueues msg and reports whether it was accepted.
func (d *Dispatcher) Submit(ctx context.Context, msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn(ctx, "notification dropped, dispatcher closed", "to", msg.To)
		d.recorder.Notification(metrics.NotifyDropped)
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn(ctx, "notification dropped, queue full", "to", msg.To)
		d.recorder.Notification(metrics.NotifyDropped)
		return false
	}
}

// Close stops accepting messages, delivers what is already queued and waits
// for the worker to exit. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	// detached from the request that produced msg
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.next.Send(ctx, msg); err != nil {
		d.logger.Error(ctx, "notification failed", "to", msg.To, "subject", msg.Subject, "error", err)
		d.recorder.Notification(metrics.NotifyFailed)
		return
	}
	d.logger.Debug(ctx, "notification sent", "to", msg.To)
	d.recorder.Notification(metrics.NotifySent)
}
