package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"alpha-clothing/internal/config"
	"alpha-clothing/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

// UserFinder resolves the account an order belongs to
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Dispatcher sends order confirmations in the background. Enqueueing never
// blocks the request that placed the order.
type Dispatcher struct {
	sender  Sender
	users   UserFinder
	logger  *zap.Logger
	workers int
	timeout time.Duration

	mu     sync.RWMutex
	jobs   chan *domain.Order
	closed bool
	group  *errgroup.Group
}

// NewDispatcher creates a dispatcher; call Start to run its workers
func NewDispatcher(sender Sender, users UserFinder, cfg config.NotifyConfig, logger *zap.Logger) *Dispatcher {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Dispatcher{
		sender:  sender,
		users:   users,
		logger:  logger,
		workers: workers,
		timeout: timeout,
		jobs:    make(chan *domain.Order, queueSize),
	}
}

// Start launches the workers. Jobs run under ctx, each bounded by the job timeout.
func (d *Dispatcher) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			d.work(gctx)
			return nil
		})
	}

	d.mu.Lock()
	d.group = g
	d.mu.Unlock()

	d.logger.Info("Notification dispatcher started", zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.jobs)))
}

// NotifyOrderPlaced queues a confirmation for order
func (d *Dispatcher) NotifyOrderPlaced(_ context.Context, order *domain.Order) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- order:
		return nil
	default:
		d.logger.Warn("Notification queue full, dropping confirmation",
			zap.String("order_number", order.OrderNumber),
		)
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for the queued ones to finish or
// for ctx to end, whichever comes first
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	g := d.group
	d.mu.Unlock()

	if g == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		d.logger.Info("Notification dispatcher stopped")
		return err
	case <-ctx.Done():
		d.logger.Warn("Notification dispatcher did not drain in time", zap.Int("pending", len(d.jobs)))
		return ctx.Err()
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	for order := range d.jobs {
		d.deliver(ctx, order)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, order *domain.Order) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	logger := d.logger.With(
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", order.UserID.String()),
	)

	user, err := d.users.FindByID(ctx, order.UserID)
	if err != nil {
		logger.Error("Failed to resolve confirmation recipient", zap.Error(err))
		return
	}

	if err := d.sender.SendOrderConfirmation(ctx, user.Email, order); err != nil {
		logger.Error("Failed to send order confirmation", zap.Error(err))
	}
}
