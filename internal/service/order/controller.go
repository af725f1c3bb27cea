// Package order drives the order created for one checkout visit: it creates
// the order at most once and cancels it if the visit ends unpaid.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
)

type State string

const (
	StateIdle      State = "idle"
	StateCreating  State = "creating"
	StateCreated   State = "created"
	StatePaid      State = "paid"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// ErrAlreadyAttempted is returned when creation was already started for the visit.
var ErrAlreadyAttempted = errors.New("order creation already attempted")

const defaultCancelTimeout = 5 * time.Second

type orderBackend interface {
	CreateOrder(ctx context.Context, token string, in backend.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, token, orderID string) error
}

// Controller owns one order for the lifetime of a checkout visit.
type Controller struct {
	orders        orderBackend
	token         string
	logger        *zap.Logger
	cancelTimeout time.Duration

	attempted atomic.Bool
	teardown  sync.Once

	mu     sync.Mutex
	state  State
	order  *domain.Order
	closed bool
}

func NewController(orders orderBackend, token string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		orders:        orders,
		token:         token,
		logger:        logger,
		cancelTimeout: defaultCancelTimeout,
		state:         StateIdle,
	}
}

// EnsureOrder creates the order for the selected lines. It reaches the
// backend at most once per controller; later calls get ErrAlreadyAttempted.
func (c *Controller) EnsureOrder(ctx context.Context, selected []domain.CartItem, couponID *string) (*domain.Order, error) {
	if len(selected) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if !c.attempted.CompareAndSwap(false, true) {
		return c.Order(), ErrAlreadyAttempted
	}
	c.setState(StateCreating)

	lines := make([]domain.OrderLine, 0, len(selected))
	for _, it := range selected {
		if strings.TrimSpace(it.ItemID) == "" {
			c.logger.Warn("dropping cart line without product id", zap.String("line_id", it.ID))
			continue
		}
		lines = append(lines, domain.OrderLine{ProductID: it.ItemID, ProductType: it.ItemType})
	}
	if len(lines) == 0 {
		c.setState(StateFailed)
		return nil, domain.ErrEmptyCart
	}

	created, err := c.orders.CreateOrder(ctx, c.token, backend.CreateOrderRequest{Items: lines, CouponID: couponID})
	if err != nil {
		c.setState(StateFailed)
		return nil, fmt.Errorf("create order: %w", err)
	}

	c.mu.Lock()
	c.order = created
	c.state = StateCreated
	closed := c.closed
	c.mu.Unlock()

	c.logger.Info("order created", zap.String("order_id", created.ID), zap.Int("lines", len(lines)))

	// The visit ended while creation was in flight.
	if closed {
		c.cancel(ctx, created.ID)
	}
	return created, nil
}

// Refresh re-reads the canonical order, whose totals supersede local estimates.
func (c *Controller) Refresh(ctx context.Context) (*domain.Order, error) {
	id := c.OrderID()
	if id == "" {
		return nil, domain.ErrNotFound
	}
	fresh, err := c.orders.GetOrder(ctx, c.token, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.order = fresh
	switch fresh.OrderStatus {
	case domain.OrderStatusPaid:
		c.state = StatePaid
	case domain.OrderStatusCancelled:
		c.state = StateCancelled
	}
	c.mu.Unlock()
	return fresh, nil
}

// MarkPaid records a completed payment. A paid order is never cancelled.
func (c *Controller) MarkPaid() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StatePaid
	if c.order != nil {
		c.order.OrderStatus = domain.OrderStatusPaid
	}
}

// Teardown ends the visit. An order still created and unpaid is cancelled
// once, best effort.
func (c *Controller) Teardown(ctx context.Context) {
	c.teardown.Do(func() {
		c.mu.Lock()
		c.closed = true
		var id string
		if c.state == StateCreated && c.order != nil && c.order.OrderStatus.Cancellable() {
			id = c.order.ID
		}
		c.mu.Unlock()
		if id != "" {
			c.cancel(ctx, id)
		}
	})
}

func (c *Controller) cancel(ctx context.Context, orderID string) {
	ctx, done := context.WithTimeout(context.WithoutCancel(ctx), c.cancelTimeout)
	defer done()

	c.setState(StateCancelled)
	if err := c.orders.CancelOrder(ctx, c.token, orderID); err != nil {
		c.logger.Warn("cancel abandoned order", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	c.logger.Info("abandoned order cancelled", zap.String("order_id", orderID))
}

// ShouldConfirmLeave reports whether leaving now would abandon an unpaid order.
func (c *Controller) ShouldConfirmLeave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateCreated
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Order() *domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order == nil {
		return nil
	}
	o := *c.order
	return &o
}

func (c *Controller) OrderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order == nil {
		return ""
	}
	return c.order.ID
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
