package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
)

// State is the per-method submit state.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateTokenizing State = "tokenizing"
	StateCharging   State = "charging"
	StateUploading  State = "uploading"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Payload is a method specific submit form.
type Payload interface {
	Method() domain.PaymentMethod
}

var errWrongPayload = errors.New("payload does not match payment method")

type CardForm struct {
	OrderID      string `json:"-"`
	Number       string `json:"number"`
	Name         string `json:"name"`
	ExpiryMonth  string `json:"expiryMonth"`
	ExpiryYear   string `json:"expiryYear"`
	SecurityCode string `json:"securityCode"`
}

func (CardForm) Method() domain.PaymentMethod { return domain.PaymentMethodCard }

type charger interface {
	Charge(ctx context.Context, token, orderID, cardToken string) (*backend.ChargeResult, error)
}

// stateTracker holds a method's state and its in-flight flag.
type stateTracker struct {
	pending atomic.Bool
	mu      sync.Mutex
	state   State
}

func (s *stateTracker) set(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *stateTracker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return StateIdle
	}
	return s.state
}

func (s *stateTracker) begin() bool {
	return s.pending.CompareAndSwap(false, true)
}

func (s *stateTracker) end() {
	s.pending.Store(false)
}

// Card validates, tokenizes and charges a card for one order.
type Card struct {
	stateTracker
	tokenizer Tokenizer
	charger   charger
	authToken string
	now       func() time.Time
}

func NewCard(tokenizer Tokenizer, charger charger, authToken string) *Card {
	return &Card{tokenizer: tokenizer, charger: charger, authToken: authToken, now: time.Now}
}

// Submit is not re-entrant: a call made while another is in flight returns
// domain.ErrPaymentInProgress without side effects.
func (c *Card) Submit(ctx context.Context, p Payload) (domain.Payment, error) {
	form, ok := p.(CardForm)
	if !ok {
		return domain.Payment{}, errWrongPayload
	}
	if !c.begin() {
		return domain.Payment{}, domain.ErrPaymentInProgress
	}
	defer c.end()

	c.set(StateValidating)
	if err := ValidateCard(form, c.now()); err != nil {
		c.set(StateFailed)
		return domain.Payment{}, err
	}

	c.set(StateTokenizing)
	cardToken, err := c.tokenizer.CreateToken(ctx, CardDetails{
		Name:         form.Name,
		Number:       form.Number,
		ExpiryMonth:  form.ExpiryMonth,
		ExpiryYear:   form.ExpiryYear,
		SecurityCode: form.SecurityCode,
	})
	if err != nil {
		c.set(StateFailed)
		return domain.Payment{}, err
	}

	c.set(StateCharging)
	res, err := c.charger.Charge(ctx, c.authToken, form.OrderID, cardToken)
	if err != nil {
		c.set(StateFailed)
		return domain.Payment{}, err
	}
	c.set(StateDone)
	return domain.Payment{PaymentID: res.OmiseChargeID, Method: domain.PaymentMethodCard}, nil
}
