package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/domain"
	"sprouting-academy/internal/service/discount"
	"sprouting-academy/internal/service/order"
	"sprouting-academy/internal/service/payment"
)

// Visit is one checkout page lifetime: the selection, its order and the
// mounted payment methods.
type Visit struct {
	ID       string
	sess     auth.Session
	user     *domain.User
	selected []domain.CartItem

	orders   *order.Controller
	payments *payment.Coordinator
	unmount  []func()

	svc    *Service
	logger *zap.Logger

	mu           sync.Mutex
	coupon       string
	confirmation *domain.Confirmation
	ended        bool
}

// View is what the checkout page renders for a visit.
type View struct {
	VisitID       string               `json:"visitId"`
	Items         []domain.CartItem    `json:"items"`
	Quote         discount.Result      `json:"quote"`
	Order         *domain.Order        `json:"order,omitempty"`
	AmountDue     int64                `json:"amountDue"`
	OrderState    order.State          `json:"orderState"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	ConfirmLeave  bool                 `json:"confirmLeave"`
	Confirmation  *domain.Confirmation `json:"confirmation,omitempty"`
}

func (v *Visit) view() View {
	v.mu.Lock()
	coupon := v.coupon
	conf := v.confirmation
	v.mu.Unlock()

	quote := discount.Calculate(v.selected, coupon)
	o := v.orders.Order()
	due := quote.FinalPrice
	if o != nil {
		due = o.TotalAmount
	}
	return View{
		VisitID:       v.ID,
		Items:         v.selected,
		Quote:         quote,
		Order:         o,
		AmountDue:     due,
		OrderState:    v.orders.State(),
		PaymentMethod: v.payments.Active(),
		ConfirmLeave:  v.orders.ShouldConfirmLeave(),
		Confirmation:  conf,
	}
}

func (v *Visit) setCoupon(code string) {
	v.mu.Lock()
	v.coupon = discount.NormalizeCoupon(code)
	v.mu.Unlock()
}

// mount registers every payment method with the visit's coordinator.
func (v *Visit) mount(card *payment.Card, transfer *payment.BankTransfer, promptPay *payment.PromptPay) {
	v.unmount = append(v.unmount,
		v.payments.Register(domain.PaymentMethodCard, card.Submit),
		v.payments.Register(domain.PaymentMethodBankTransfer, transfer.Submit),
		v.payments.Register(domain.PaymentMethodPromptPay, promptPay.Submit),
	)
}

// paid is the coordinator's success callback.
func (v *Visit) paid(paymentID string, method domain.PaymentMethod) {
	v.orders.MarkPaid()

	o := v.orders.Order()
	amount := discount.Calculate(v.selected, v.couponCode()).FinalPrice
	orderID := ""
	if o != nil {
		amount = o.TotalAmount
		orderID = o.ID
	}
	userName := ""
	if v.user != nil {
		userName = v.user.FullName
	}
	conf := domain.Confirmation{
		Amount:      amount,
		UserName:    userName,
		ItemName:    itemNames(v.selected),
		OrderNumber: orderID,
		DateTime:    v.svc.now(),
		PaymentID:   paymentID,
		Method:      method,
	}
	v.mu.Lock()
	v.confirmation = &conf
	v.mu.Unlock()

	v.logger.Info("payment confirmed",
		zap.String("visit_id", v.ID), zap.String("order_id", orderID),
		zap.String("payment_id", paymentID), zap.String("method", string(method)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.svc.carts.ClearCart(ctx, v.sess); err != nil {
		v.logger.Warn("clear cart after payment", zap.String("visit_id", v.ID), zap.Error(err))
	}
	v.svc.notifier.Send(conf, nil)
}

func (v *Visit) failed(method domain.PaymentMethod, err error) {
	v.logger.Info("payment failed",
		zap.String("visit_id", v.ID), zap.String("method", string(method)), zap.Error(err))
}

func (v *Visit) couponCode() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.coupon
}

func (v *Visit) Confirmation() *domain.Confirmation {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.confirmation
}

// teardown unmounts the payment methods and cancels an unpaid order.
func (v *Visit) teardown(ctx context.Context) {
	v.mu.Lock()
	if v.ended {
		v.mu.Unlock()
		return
	}
	v.ended = true
	v.mu.Unlock()

	for _, fn := range v.unmount {
		fn()
	}
	v.orders.Teardown(ctx)
}

func itemNames(items []domain.CartItem) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}
	return strings.Join(names, ", ")
}
