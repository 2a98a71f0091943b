package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
)

var ErrQueueFull = errors.New("notification queue full")

type Sink interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Dispatcher decouples delivery from the caller: Notify only enqueues, and a
// single worker started with Start hands each notification to the sink.
type Dispatcher struct {
	sink    Sink
	queue   chan domain.Notification
	timeout time.Duration
	logger  *slog.Logger
	done    chan struct{}
}

func NewDispatcher(sink Sink, buffer int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan domain.Notification, buffer),
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) error {
	select {
	case d.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start blocks until ctx is cancelled, then delivers whatever is still queued
// and returns.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("notification dispatcher started", "buffer", cap(d.queue))
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("notification dispatcher stopped")
			return
		case n := <-d.queue:
			d.deliver(n)
		}
	}
}

// Done is closed once Start has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) drain() {
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(n domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Send(ctx, n); err != nil {
		d.logger.Warn("notification delivery failed",
			"template", n.Template,
			"user_ref", n.UserRef,
			"error", err,
		)
	}
}
