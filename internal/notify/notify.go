// Package notify fans a completed payment out to best-effort sinks.
package notify

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sprouting-academy/internal/domain"
	"sprouting-academy/internal/inflight"
)

const defaultTimeout = 10 * time.Second

type Notifier interface {
	PaymentConfirmed(ctx context.Context, c domain.Confirmation) error
}

// Multi delivers to every sink and reports their combined failures.
type Multi []Notifier

func (m Multi) PaymentConfirmed(ctx context.Context, c domain.Confirmation) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.PaymentConfirmed(ctx, c))
	}
	return err
}

// Nop drops every notification.
type Nop struct{}

func (Nop) PaymentConfirmed(context.Context, domain.Confirmation) error { return nil }

// Dispatcher sends notifications off the request path. Failures are logged
// and never retried.
type Dispatcher struct {
	n        Notifier
	logger   *zap.Logger
	timeout  time.Duration
	inflight inflight.Tracker
}

func NewDispatcher(n Notifier, logger *zap.Logger) *Dispatcher {
	if n == nil {
		n = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{n: n, logger: logger, timeout: defaultTimeout}
}

// Wait blocks until every sent notification is delivered or has failed, or
// ctx is done. Sinks must stay open until it returns.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.inflight.Wait(ctx)
}

// Send returns immediately. done, if non-nil, is closed when delivery ends.
func (d *Dispatcher) Send(c domain.Confirmation, done chan<- struct{}) {
	d.inflight.Start()
	go func() {
		defer d.inflight.Done()
		if done != nil {
			defer close(done)
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.n.PaymentConfirmed(ctx, c); err != nil {
			d.logger.Warn("payment notification failed",
				zap.String("order_id", c.OrderNumber), zap.String("payment_id", c.PaymentID), zap.Error(err))
			return
		}
		d.logger.Debug("payment notification sent", zap.String("order_id", c.OrderNumber))
	}()
}
