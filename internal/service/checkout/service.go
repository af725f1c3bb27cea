// Package checkout composes cart, order and payment into checkout visits.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
	"sprouting-academy/internal/notify"
	"sprouting-academy/internal/service/discount"
	"sprouting-academy/internal/service/order"
	"sprouting-academy/internal/service/payment"
)

const (
	defaultVisitTTL   = 30 * time.Minute
	defaultVisitLimit = 4096
)

type users interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

type carts interface {
	GetCart(ctx context.Context, sess auth.Session) ([]domain.CartItem, error)
	ClearCart(ctx context.Context, sess auth.Session) error
}

// Backend is the slice of the commerce backend a visit needs.
type Backend interface {
	CreateOrder(ctx context.Context, token string, in backend.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, token, orderID string) error
	Charge(ctx context.Context, token, orderID, cardToken string) (*backend.ChargeResult, error)
	UploadBankTransfer(ctx context.Context, token, orderID, filename, contentType string, file io.Reader) (*backend.BankTransferResult, error)
}

type Config struct {
	VisitTTL   time.Duration
	VisitLimit int
}

type Service struct {
	users     users
	carts     carts
	backend   Backend
	tokenizer payment.Tokenizer
	notifier  *notify.Dispatcher
	visits    *Registry
	logger    *zap.Logger
	now       func() time.Time
}

func New(cfg Config, users users, carts carts, be Backend, tokenizer payment.Tokenizer, notifier *notify.Dispatcher, logger *zap.Logger) *Service {
	if cfg.VisitTTL <= 0 {
		cfg.VisitTTL = defaultVisitTTL
	}
	if cfg.VisitLimit <= 0 {
		cfg.VisitLimit = defaultVisitLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewDispatcher(nil, logger)
	}
	return &Service{
		users:     users,
		carts:     carts,
		backend:   be,
		tokenizer: tokenizer,
		notifier:  notifier,
		visits:    NewRegistry(cfg.VisitLimit, cfg.VisitTTL),
		logger:    logger,
		now:       time.Now,
	}
}

// ParseSelection splits the comma separated items query value.
func ParseSelection(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Select keeps the cart lines named by ids, in cart order. No ids selects
// the whole cart.
func Select(cart []domain.CartItem, ids []string) []domain.CartItem {
	if len(ids) == 0 {
		return append([]domain.CartItem(nil), cart...)
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []domain.CartItem
	for _, it := range cart {
		if _, ok := want[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Open starts a checkout visit: it loads the user and cart, derives the
// selection and creates the visit's order.
func (s *Service) Open(ctx context.Context, sess auth.Session, itemIDs []string, couponCode string) (*View, error) {
	if !sess.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	var (
		user *domain.User
		cart []domain.CartItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.CurrentUser(gctx, sess.AuthToken())
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		items, err := s.carts.GetCart(gctx, sess)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		cart = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	selected := Select(cart, itemIDs)
	if len(selected) == 0 {
		return nil, domain.ErrEmptyCart
	}

	v := s.newVisit(sess, user, selected)
	v.setCoupon(couponCode)

	var couponID *string
	if code := v.couponCode(); discount.ValidCoupon(code) {
		couponID = &code
	}
	if _, err := v.orders.EnsureOrder(ctx, selected, couponID); err != nil {
		v.teardown(context.WithoutCancel(ctx))
		return nil, err
	}
	if _, err := v.orders.Refresh(ctx); err != nil {
		s.logger.Warn("refresh order totals", zap.String("visit_id", v.ID), zap.Error(err))
	}

	s.visits.Add(v)
	s.logger.Info("checkout visit opened",
		zap.String("visit_id", v.ID), zap.String("order_id", v.orders.OrderID()), zap.Int("items", len(selected)))

	view := v.view()
	return &view, nil
}

func (s *Service) newVisit(sess auth.Session, user *domain.User, selected []domain.CartItem) *Visit {
	v := &Visit{
		ID:       uuid.NewString(),
		sess:     sess,
		user:     user,
		selected: selected,
		orders:   order.NewController(s.backend, sess.AuthToken(), s.logger),
		svc:      s,
		logger:   s.logger,
	}
	v.payments = payment.NewCoordinator(v.paid, v.failed)
	v.mount(
		payment.NewCard(s.tokenizer, s.backend, sess.AuthToken()),
		payment.NewBankTransfer(s.backend, sess.AuthToken()),
		payment.NewPromptPay(),
	)
	return v
}

// lookup returns the visit only to the session that opened it.
func (s *Service) lookup(sess auth.Session, visitID string) (*Visit, error) {
	v, ok := s.visits.Get(visitID)
	if !ok || v.sess.AuthToken() != sess.AuthToken() {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

// View re-reads the canonical order totals when possible.
func (s *Service) View(ctx context.Context, sess auth.Session, visitID string) (*View, error) {
	v, err := s.lookup(sess, visitID)
	if err != nil {
		return nil, err
	}
	if v.orders.State() == order.StateCreated {
		if _, err := v.orders.Refresh(ctx); err != nil {
			s.logger.Warn("refresh order totals", zap.String("visit_id", v.ID), zap.Error(err))
		}
	}
	view := v.view()
	return &view, nil
}

// ApplyCoupon recomputes the estimate. An unknown code clears the coupon.
func (s *Service) ApplyCoupon(sess auth.Session, visitID, code string) (*View, error) {
	v, err := s.lookup(sess, visitID)
	if err != nil {
		return nil, err
	}
	v.setCoupon(code)
	view := v.view()
	return &view, nil
}

// Pay runs the contact gate and the given method against the visit's order.
func (s *Service) Pay(ctx context.Context, sess auth.Session, visitID string, contact domain.ContactInfo, p payment.Payload) (*domain.Confirmation, error) {
	v, err := s.lookup(sess, visitID)
	if err != nil {
		return nil, err
	}
	if conf := v.Confirmation(); conf != nil {
		return conf, nil
	}
	if err := v.payments.SetActive(p.Method()); err != nil {
		return nil, err
	}
	if _, err := v.payments.Confirm(ctx, contact, withOrderID(p, v.orders.OrderID())); err != nil {
		return nil, err
	}
	conf := v.Confirmation()
	if conf == nil {
		return nil, errors.New("payment confirmed without confirmation")
	}
	return conf, nil
}

func withOrderID(p payment.Payload, orderID string) payment.Payload {
	switch f := p.(type) {
	case payment.CardForm:
		f.OrderID = orderID
		return f
	case payment.BankTransferForm:
		f.OrderID = orderID
		return f
	case payment.PromptPayForm:
		f.OrderID = orderID
		return f
	default:
		return p
	}
}

// Close ends a visit, cancelling its order if still unpaid.
func (s *Service) Close(ctx context.Context, sess auth.Session, visitID string) error {
	v, err := s.lookup(sess, visitID)
	if err != nil {
		return err
	}
	v.teardown(ctx)
	s.visits.Remove(visitID)
	return nil
}

// Shutdown tears down every open visit.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.visits.Purge(ctx)
}
