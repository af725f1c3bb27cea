package order

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
)

type stubOrders struct {
	createCalls atomic.Int32
	cancelCalls atomic.Int32
	createDelay time.Duration
	createErr   error
	cancelErr   error

	mu           sync.Mutex
	lastCreate   backend.CreateOrderRequest
	lastCancelID string
	getResult    *domain.Order
}

func (s *stubOrders) CreateOrder(_ context.Context, _ string, in backend.CreateOrderRequest) (*domain.Order, error) {
	s.createCalls.Add(1)
	if s.createDelay > 0 {
		time.Sleep(s.createDelay)
	}
	s.mu.Lock()
	s.lastCreate = in
	s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Order{ID: "ord-1", OrderStatus: domain.OrderStatusCreated, SubtotalAmount: 4500, TotalAmount: 3600}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, _, _ string) (*domain.Order, error) {
	if s.getResult == nil {
		return nil, domain.ErrNotFound
	}
	return s.getResult, nil
}

func (s *stubOrders) CancelOrder(_ context.Context, _, id string) error {
	s.cancelCalls.Add(1)
	s.mu.Lock()
	s.lastCancelID = id
	s.mu.Unlock()
	return s.cancelErr
}

func lines(ids ...string) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.CartItem{ID: id, ItemID: id, ItemType: domain.ItemTypeCourse})
	}
	return out
}

func TestEnsureOrderCreatesAtMostOnceUnderOverlap(t *testing.T) {
	stub := &stubOrders{createDelay: 20 * time.Millisecond}
	c := NewController(stub, "tok", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.EnsureOrder(context.Background(), lines("A", "B"), nil)
		}()
	}
	wg.Wait()

	if got := stub.createCalls.Load(); got != 1 {
		t.Fatalf("expected one create call, got %d", got)
	}
	if c.State() != StateCreated || c.OrderID() != "ord-1" {
		t.Fatalf("unexpected state %s order %q", c.State(), c.OrderID())
	}
	if _, err := c.EnsureOrder(context.Background(), lines("A"), nil); !errors.Is(err, ErrAlreadyAttempted) {
		t.Fatalf("expected ErrAlreadyAttempted, got %v", err)
	}
}

func TestEnsureOrderEmptySelection(t *testing.T) {
	stub := &stubOrders{}
	c := NewController(stub, "tok", nil)
	if _, err := c.EnsureOrder(context.Background(), nil, nil); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if stub.createCalls.Load() != 0 {
		t.Fatalf("empty selection must not reach the backend")
	}
}

func TestEnsureOrderDropsLinesWithoutProductID(t *testing.T) {
	stub := &stubOrders{}
	c := NewController(stub, "tok", nil)
	sel := lines("A")
	sel = append(sel, domain.CartItem{ID: "broken", ItemType: domain.ItemTypeEbook})
	coupon := "TEST500"

	if _, err := c.EnsureOrder(context.Background(), sel, &coupon); err != nil {
		t.Fatalf("ensure order: %v", err)
	}
	if len(stub.lastCreate.Items) != 1 || stub.lastCreate.Items[0].ProductID != "A" {
		t.Fatalf("unexpected payload %+v", stub.lastCreate.Items)
	}
	if stub.lastCreate.CouponID == nil || *stub.lastCreate.CouponID != "TEST500" {
		t.Fatalf("expected coupon in payload")
	}
}

func TestEnsureOrderFailure(t *testing.T) {
	c := NewController(&stubOrders{createErr: errors.New("boom")}, "tok", nil)
	if _, err := c.EnsureOrder(context.Background(), lines("A"), nil); err == nil {
		t.Fatalf("expected error")
	}
	if c.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", c.State())
	}
}

func TestTeardownCancelsCreatedOrderExactlyOnce(t *testing.T) {
	stub := &stubOrders{cancelErr: errors.New("server down")}
	c := NewController(stub, "tok", nil)
	if _, err := c.EnsureOrder(context.Background(), lines("A"), nil); err != nil {
		t.Fatalf("ensure order: %v", err)
	}
	if !c.ShouldConfirmLeave() {
		t.Fatalf("expected leave confirmation for unpaid order")
	}

	c.Teardown(context.Background())
	c.Teardown(context.Background())

	if got := stub.cancelCalls.Load(); got != 1 {
		t.Fatalf("expected one cancel, got %d", got)
	}
	if stub.lastCancelID != "ord-1" {
		t.Fatalf("expected cancel for ord-1, got %q", stub.lastCancelID)
	}
	if c.State() != StateCancelled {
		t.Fatalf("expected cancelled state, got %s", c.State())
	}
}

func TestTeardownSkipsPaidOrder(t *testing.T) {
	stub := &stubOrders{}
	c := NewController(stub, "tok", nil)
	_, _ = c.EnsureOrder(context.Background(), lines("A"), nil)
	c.MarkPaid()
	c.Teardown(context.Background())
	if stub.cancelCalls.Load() != 0 {
		t.Fatalf("paid order must not be cancelled")
	}
	if c.ShouldConfirmLeave() {
		t.Fatalf("paid visit needs no leave confirmation")
	}
}

func TestTeardownBeforeCreationIsNoop(t *testing.T) {
	stub := &stubOrders{}
	c := NewController(stub, "tok", nil)
	c.Teardown(context.Background())
	if stub.cancelCalls.Load() != 0 {
		t.Fatalf("nothing to cancel")
	}
}

func TestTeardownDuringCreationCancelsLateOrder(t *testing.T) {
	stub := &stubOrders{createDelay: 30 * time.Millisecond}
	c := NewController(stub, "tok", nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.EnsureOrder(context.Background(), lines("A"), nil)
	}()
	time.Sleep(5 * time.Millisecond)
	c.Teardown(context.Background())
	<-done
	if got := stub.cancelCalls.Load(); got != 1 {
		t.Fatalf("expected late order cancelled once, got %d", got)
	}
}

func TestRefreshAdoptsServerTotals(t *testing.T) {
	stub := &stubOrders{getResult: &domain.Order{ID: "ord-1", OrderStatus: domain.OrderStatusCreated, TotalAmount: 3100}}
	c := NewController(stub, "tok", nil)
	if _, err := c.Refresh(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("refresh before creation should be not found, got %v", err)
	}
	_, _ = c.EnsureOrder(context.Background(), lines("A"), nil)
	o, err := c.Refresh(context.Background())
	if err != nil || o.TotalAmount != 3100 {
		t.Fatalf("unexpected refresh %+v err %v", o, err)
	}
}
