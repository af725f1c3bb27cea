// Package payment turns a method specific form into a confirmed payment.
// Methods register a submit callback with the Coordinator, which is the only
// place aware of all of them.
package payment

import (
	"context"
	"errors"
	"sync"

	"sprouting-academy/internal/domain"
)

type SubmitFunc func(ctx context.Context, p Payload) (domain.Payment, error)

// SuccessFunc and ErrorFunc form the single outcome contract for every method.
type (
	SuccessFunc func(paymentID string, method domain.PaymentMethod)
	ErrorFunc   func(method domain.PaymentMethod, err error)
)

type Coordinator struct {
	mu        sync.Mutex
	methods   map[domain.PaymentMethod]SubmitFunc
	active    domain.PaymentMethod
	onSuccess SuccessFunc
	onError   ErrorFunc
}

func NewCoordinator(onSuccess SuccessFunc, onError ErrorFunc) *Coordinator {
	if onSuccess == nil {
		onSuccess = func(string, domain.PaymentMethod) {}
	}
	if onError == nil {
		onError = func(domain.PaymentMethod, error) {}
	}
	return &Coordinator{
		methods:   make(map[domain.PaymentMethod]SubmitFunc),
		active:    domain.PaymentMethodCard,
		onSuccess: onSuccess,
		onError:   onError,
	}
}

// Register mounts a method. The returned func unmounts it.
func (c *Coordinator) Register(method domain.PaymentMethod, submit SubmitFunc) func() {
	c.mu.Lock()
	c.methods[method] = submit
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.methods, method)
		c.mu.Unlock()
	}
}

// SetActive selects the method tab a confirm delegates to.
func (c *Coordinator) SetActive(method domain.PaymentMethod) error {
	if !method.Valid() {
		return &domain.ValidationError{Field: "method", Message: "unknown payment method"}
	}
	c.mu.Lock()
	c.active = method
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) Active() domain.PaymentMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Confirm gates on contact info and then triggers the active method. A submit
// rejected because the method is busy is dropped without firing callbacks.
func (c *Coordinator) Confirm(ctx context.Context, contact domain.ContactInfo, p Payload) (domain.Payment, error) {
	if err := ValidateContact(contact); err != nil {
		return domain.Payment{}, err
	}

	c.mu.Lock()
	method := c.active
	submit := c.methods[method]
	c.mu.Unlock()
	if submit == nil {
		return domain.Payment{}, domain.ErrPaymentUnavailable
	}

	payment, err := submit(ctx, p)
	if errors.Is(err, domain.ErrPaymentInProgress) {
		return domain.Payment{}, err
	}
	if err != nil {
		c.onError(method, err)
		return domain.Payment{}, err
	}
	c.onSuccess(payment.PaymentID, payment.Method)
	return payment, nil
}
