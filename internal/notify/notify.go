// Package notify delivers best-effort borrow notifications to item owners.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Notifier sends a notification that someone wants to borrow an item.
type Notifier interface {
	SendBorrowEmail(ctx context.Context, ownerName, itemName string) error
}

// LogNotifier only logs. It stands in for a real mail dispatcher.
type LogNotifier struct{}

// SendBorrowEmail logs the notification.
func (LogNotifier) SendBorrowEmail(_ context.Context, ownerName, itemName string) error {
	slog.Info("email notification triggered", "owner", ownerName, "item", itemName)
	return nil
}

type message struct {
	owner string
	item  string
}

// Dispatcher makes a Notifier fire-and-forget. Messages are queued and sent
// by a single worker at a bounded rate; when the queue is full they are dropped.
type Dispatcher struct {
	next    Notifier
	limiter *rate.Limiter
	timeout time.Duration

	queue chan message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts a dispatcher in front of next.
func NewDispatcher(next Notifier, perSecond float64, burst, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}

	d := &Dispatcher{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		timeout: 10 * time.Second,
		queue:   make(chan message, queueSize),
		done:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// SendBorrowEmail enqueues the notification and returns immediately.
// It never reports delivery failures.
func (d *Dispatcher) SendBorrowEmail(_ context.Context, ownerName, itemName string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		slog.Warn("notification dropped after shutdown", "owner", ownerName, "item", itemName)
		return nil
	}

	select {
	case d.queue <- message{owner: ownerName, item: itemName}:
	default:
		slog.Warn("notification queue full, dropping", "owner", ownerName, "item", itemName)
	}
	return nil
}

// Close stops accepting messages, delivers what is queued and stops the worker.
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
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.limiter.Wait(ctx); err != nil {
			slog.Warn("notification rate wait failed", "error", err)
			cancel()
			continue
		}
		if err := d.next.SendBorrowEmail(ctx, msg.owner, msg.item); err != nil {
			slog.Error("failed to send borrow notification", "owner", msg.owner, "item", msg.item, "error", err)
		}
		cancel()
	}
}
