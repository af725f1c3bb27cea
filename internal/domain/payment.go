package domain

import "time"

// PaymentMethod tags the payment tab a confirmation came from.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPromptPay    PaymentMethod = "promptpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodPromptPay:
		return true
	default:
		return false
	}
}

// Payment is the outcome handed to the success contract.
type Payment struct {
	PaymentID string        `json:"paymentId"`
	Method    PaymentMethod `json:"method"`
}

// Confirmation is the transient data shown after a successful payment.
type Confirmation struct {
	Amount      int64         `json:"amount"`
	UserName    string        `json:"userName"`
	ItemName    string        `json:"itemName"`
	OrderNumber string        `json:"orderNumber"`
	DateTime    time.Time     `json:"dateTime"`
	PaymentID   string        `json:"paymentId"`
	Method      PaymentMethod `json:"method"`
}

// ContactInfo is the buyer contact block validated before any payment submit.
type ContactInfo struct {
	Name  string `json:"name" form:"name"`
	Phone string `json:"phone" form:"phone"`
	Email string `json:"email" form:"email"`
}

// User is the signed in customer as reported by the backend.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}
