package checkout

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
	"sprouting-academy/internal/service/payment"
)

type stubUsers struct {
	user *domain.User
	err  error
}

func (s *stubUsers) CurrentUser(context.Context, string) (*domain.User, error) {
	return s.user, s.err
}

type stubCarts struct {
	mu       sync.Mutex
	items    []domain.CartItem
	getErr   error
	clearErr error
	cleared  int
}

func (s *stubCarts) GetCart(context.Context, auth.Session) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return append([]domain.CartItem(nil), s.items...), nil
}

func (s *stubCarts) ClearCart(context.Context, auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return s.clearErr
}

type stubBackend struct {
	mu           sync.Mutex
	createCalls  atomic.Int32
	cancelCalls  atomic.Int32
	chargeCalls  atomic.Int32
	createErr    error
	chargeErr    error
	lastCreate   backend.CreateOrderRequest
	lastCancelID string
	totalAmount  int64
	cancelDelay  time.Duration
}

func (s *stubBackend) CreateOrder(_ context.Context, _ string, in backend.CreateOrderRequest) (*domain.Order, error) {
	s.createCalls.Add(1)
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.mu.Lock()
	s.lastCreate = in
	s.mu.Unlock()
	return s.order(), nil
}

func (s *stubBackend) order() *domain.Order {
	return &domain.Order{ID: "ord-1", OrderStatus: domain.OrderStatusCreated, SubtotalAmount: 4500, TotalAmount: s.totalAmount}
}

func (s *stubBackend) GetOrder(context.Context, string, string) (*domain.Order, error) {
	return s.order(), nil
}

func (s *stubBackend) CancelOrder(_ context.Context, _, orderID string) error {
	time.Sleep(s.cancelDelay)
	s.cancelCalls.Add(1)
	s.mu.Lock()
	s.lastCancelID = orderID
	s.mu.Unlock()
	return nil
}

func (s *stubBackend) Charge(context.Context, string, string, string) (*backend.ChargeResult, error) {
	s.chargeCalls.Add(1)
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return &backend.ChargeResult{OmiseChargeID: "chrg_1"}, nil
}

func (s *stubBackend) UploadBankTransfer(context.Context, string, string, string, string, io.Reader) (*backend.BankTransferResult, error) {
	return &backend.BankTransferResult{ID: "bt_1"}, nil
}

type stubTokenizer struct{}

func (stubTokenizer) CreateToken(context.Context, payment.CardDetails) (string, error) {
	return "tokn_1", nil
}

type stubNotifier struct {
	mu    sync.Mutex
	sent  []domain.Confirmation
	delay time.Duration
}

func (s *stubNotifier) PaymentConfirmed(_ context.Context, c domain.Confirmation) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return nil
}

func courseLine(id string, price int64) domain.CartItem {
	return domain.CartItem{
		ID: "e-" + id, ItemID: id, ItemType: domain.ItemTypeCourse, Name: "Course " + id, Price: price,
		Course: &domain.CourseDetails{Date: domain.DateUnselected, AvailableDates: []string{}},
	}
}

func validCard() payment.CardForm {
	return payment.CardForm{Number: "4242424242424242", Name: "Jane", ExpiryMonth: "12", ExpiryYear: "2099", SecurityCode: "123"}
}

func validContact() domain.ContactInfo {
	return domain.ContactInfo{Name: "Jane", Phone: "081-234-5678", Email: "jane@example.com"}
}
