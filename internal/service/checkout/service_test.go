package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/domain"
	"sprouting-academy/internal/notify"
	"sprouting-academy/internal/service/order"
)

type fixture struct {
	carts    *stubCarts
	backend  *stubBackend
	notifier *stubNotifier
	svc      *Service
	sess     auth.Session
}

func newFixture(items ...domain.CartItem) *fixture {
	f := &fixture{
		carts:    &stubCarts{items: items},
		backend:  &stubBackend{totalAmount: 3600},
		notifier: &stubNotifier{},
		sess:     auth.NewSession("tok", ""),
	}
	f.svc = New(Config{VisitTTL: time.Minute, VisitLimit: 8},
		&stubUsers{user: &domain.User{ID: "u1", FullName: "Jane Doe"}},
		f.carts, f.backend, stubTokenizer{}, notify.NewDispatcher(f.notifier, nil), nil)
	return f
}

func TestSelect(t *testing.T) {
	cart := []domain.CartItem{courseLine("A", 1), courseLine("B", 2), courseLine("C", 3)}
	if got := Select(cart, nil); len(got) != 3 {
		t.Fatalf("no ids should select all, got %d", len(got))
	}
	got := Select(cart, ParseSelection(" e-C, ,e-A,missing"))
	if len(got) != 2 || got[0].ItemID != "A" || got[1].ItemID != "C" {
		t.Fatalf("unexpected selection %+v", got)
	}
}

func TestOpenRequiresAuthentication(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	if _, err := f.svc.Open(context.Background(), auth.NewSession("", "g"), nil, ""); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestOpenEmptySelectionFailsFast(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	_, err := f.svc.Open(context.Background(), f.sess, []string{"nope"}, "")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if f.backend.createCalls.Load() != 0 {
		t.Fatalf("empty selection must not create an order")
	}
}

func TestOpenPropagatesLoadFailure(t *testing.T) {
	f := newFixture()
	f.carts.getErr = errors.New("cart offline")
	if _, err := f.svc.Open(context.Background(), f.sess, nil, ""); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestOpenOrderCreationFailure(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	f.backend.createErr = errors.New("backend down")
	if _, err := f.svc.Open(context.Background(), f.sess, nil, ""); err == nil {
		t.Fatalf("expected creation error")
	}
	if f.svc.visits.Len() != 0 {
		t.Fatalf("failed visit must not be registered")
	}
}

func TestOpenQuotesAndUsesOrderTotals(t *testing.T) {
	f := newFixture(courseLine("A", 1000), courseLine("B", 1500), courseLine("C", 2000))
	f.backend.totalAmount = 3500

	view, err := f.svc.Open(context.Background(), f.sess, nil, "test500")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.Quote.DiscountPercent != 20 || view.Quote.DiscountAmount != 900 || view.Quote.FinalPrice != 3100 {
		t.Fatalf("unexpected quote %+v", view.Quote)
	}
	if view.AmountDue != 3500 {
		t.Fatalf("order total should supersede estimate, got %d", view.AmountDue)
	}
	if f.backend.lastCreate.CouponID == nil || *f.backend.lastCreate.CouponID != "TEST500" {
		t.Fatalf("expected normalized coupon in order payload")
	}
	if !view.ConfirmLeave || view.OrderState != order.StateCreated {
		t.Fatalf("expected created order awaiting payment, got %+v", view)
	}

	view, err = f.svc.ApplyCoupon(f.sess, view.VisitID, "BOGUS")
	if err != nil || view.Quote.FinalPrice != 3600 || view.Quote.CouponDiscount != 0 {
		t.Fatalf("bad coupon should clear discount, got %+v err %v", view.Quote, err)
	}
}

func TestVisitIsScopedToSession(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	view, err := f.svc.Open(context.Background(), f.sess, nil, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.svc.View(context.Background(), auth.NewSession("other", ""), view.VisitID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign session, got %v", err)
	}
}

func TestPayByCardCompletesVisit(t *testing.T) {
	f := newFixture(courseLine("A", 1000), courseLine("B", 2000))
	ctx := context.Background()
	view, err := f.svc.Open(ctx, f.sess, nil, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	conf, err := f.svc.Pay(ctx, f.sess, view.VisitID, validContact(), validCard())
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if conf.PaymentID != "chrg_1" || conf.Method != domain.PaymentMethodCard || conf.OrderNumber != "ord-1" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if conf.UserName != "Jane Doe" || conf.Amount != 3600 || conf.ItemName != "Course A, Course B" {
		t.Fatalf("unexpected confirmation display %+v", conf)
	}
	if f.carts.cleared != 1 {
		t.Fatalf("expected cart cleared once, got %d", f.carts.cleared)
	}

	again, err := f.svc.Pay(ctx, f.sess, view.VisitID, validContact(), validCard())
	if err != nil || again.PaymentID != conf.PaymentID || f.backend.chargeCalls.Load() != 1 {
		t.Fatalf("second pay should return the existing confirmation")
	}

	if err := f.svc.Close(ctx, f.sess, view.VisitID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f.backend.cancelCalls.Load() != 0 {
		t.Fatalf("paid order must not be cancelled")
	}
}

func TestPayContactGateBlocksDispatch(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	view, _ := f.svc.Open(context.Background(), f.sess, nil, "")
	_, err := f.svc.Pay(context.Background(), f.sess, view.VisitID, domain.ContactInfo{Name: "Jane", Phone: "0812345678"}, validCard())
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.backend.chargeCalls.Load() != 0 {
		t.Fatalf("gate failure must not charge")
	}
}

func TestPaymentSucceedsWhenCartClearFails(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	f.carts.clearErr = errors.New("store down")
	view, _ := f.svc.Open(context.Background(), f.sess, nil, "")
	if _, err := f.svc.Pay(context.Background(), f.sess, view.VisitID, validContact(), validCard()); err != nil {
		t.Fatalf("payment must not be rolled back, got %v", err)
	}
}

func TestCloseCancelsUnpaidOrderOnce(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	ctx := context.Background()
	view, _ := f.svc.Open(ctx, f.sess, nil, "")

	if err := f.svc.Close(ctx, f.sess, view.VisitID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.svc.Close(ctx, f.sess, view.VisitID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second close should be not found, got %v", err)
	}
	if err := f.svc.visits.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := f.backend.cancelCalls.Load(); got != 1 {
		t.Fatalf("expected one cancel, got %d", got)
	}
}

func TestShutdownCancelsOpenVisits(t *testing.T) {
	f := newFixture(courseLine("A", 1000))
	ctx := context.Background()
	_, _ = f.svc.Open(ctx, f.sess, nil, "")
	_, _ = f.svc.Open(ctx, f.sess, nil, "")

	if err := f.svc.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := f.backend.cancelCalls.Load(); got != 2 {
		t.Fatalf("expected both visits cancelled, got %d", got)
	}
}

func TestWaitCoversVisitExpiringMeanwhile(t *testing.T) {
	carts := &stubCarts{items: []domain.CartItem{courseLine("A", 1000)}}
	be := &stubBackend{totalAmount: 1000, cancelDelay: 100 * time.Millisecond}
	svc := New(Config{VisitTTL: 30 * time.Millisecond, VisitLimit: 8},
		&stubUsers{user: &domain.User{ID: "u1"}}, carts, be, stubTokenizer{}, nil, nil)
	sess := auth.NewSession("tok", "")
	ctx := context.Background()

	first, err := svc.Open(ctx, sess, nil, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.Open(ctx, sess, nil, ""); err != nil {
		t.Fatalf("open: %v", err)
	}

	// The first teardown is still cancelling when the second visit expires.
	svc.visits.Remove(first.VisitID)
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := svc.visits.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := be.cancelCalls.Load(); got != 2 {
		t.Fatalf("expected both visits cancelled before wait returned, got %d", got)
	}
}
