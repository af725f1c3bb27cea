package payment

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
)

// MaxSlipSize bounds transfer slip uploads.
const MaxSlipSize = 5 << 20

var allowedSlipTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Attachment is an uploaded proof-of-payment image.
type Attachment struct {
	Filename string
	Data     []byte
}

type BankTransferForm struct {
	OrderID string
	File    *Attachment
}

func (BankTransferForm) Method() domain.PaymentMethod { return domain.PaymentMethodBankTransfer }

type PromptPayForm struct {
	OrderID string
	File    *Attachment
}

func (PromptPayForm) Method() domain.PaymentMethod { return domain.PaymentMethodPromptPay }

type uploader interface {
	UploadBankTransfer(ctx context.Context, token, orderID, filename, contentType string, file io.Reader) (*backend.BankTransferResult, error)
}

func validateSlip(orderID string, file *Attachment) (string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", &domain.ValidationError{Field: "orderId", Message: "order id is required"}
	}
	if file == nil || len(file.Data) == 0 {
		return "", &domain.ValidationError{Field: "file", Message: "transfer slip is required"}
	}
	mt := mimetype.Detect(file.Data)
	if !mimetype.EqualsAny(mt.String(), allowedSlipTypes...) {
		return "", &domain.ValidationError{Field: "file", Message: "slip must be a jpeg, png or webp image"}
	}
	if len(file.Data) > MaxSlipSize {
		return "", &domain.ValidationError{Field: "file", Message: "slip must be 5MB or smaller"}
	}
	return mt.String(), nil
}

// BankTransfer uploads a transfer slip against an order.
type BankTransfer struct {
	stateTracker
	uploader  uploader
	authToken string
}

func NewBankTransfer(uploader uploader, authToken string) *BankTransfer {
	return &BankTransfer{uploader: uploader, authToken: authToken}
}

func (b *BankTransfer) Submit(ctx context.Context, p Payload) (domain.Payment, error) {
	form, ok := p.(BankTransferForm)
	if !ok {
		return domain.Payment{}, errWrongPayload
	}
	if !b.begin() {
		return domain.Payment{}, domain.ErrPaymentInProgress
	}
	defer b.end()

	b.set(StateValidating)
	contentType, err := validateSlip(form.OrderID, form.File)
	if err != nil {
		b.set(StateFailed)
		return domain.Payment{}, err
	}

	b.set(StateUploading)
	res, err := b.uploader.UploadBankTransfer(ctx, b.authToken, form.OrderID, form.File.Filename, contentType, bytes.NewReader(form.File.Data))
	if err != nil {
		b.set(StateFailed)
		return domain.Payment{}, err
	}
	b.set(StateDone)
	return domain.Payment{PaymentID: res.ID, Method: domain.PaymentMethodBankTransfer}, nil
}

// PromptPay validates its form but never completes a payment.
type PromptPay struct {
	stateTracker
}

func NewPromptPay() *PromptPay {
	return &PromptPay{}
}

func (p *PromptPay) Submit(_ context.Context, payload Payload) (domain.Payment, error) {
	form, ok := payload.(PromptPayForm)
	if !ok {
		return domain.Payment{}, errWrongPayload
	}
	p.set(StateValidating)
	if strings.TrimSpace(form.OrderID) == "" {
		p.set(StateFailed)
		return domain.Payment{}, &domain.ValidationError{Field: "orderId", Message: "order id is required"}
	}
	if form.File == nil || len(form.File.Data) == 0 {
		p.set(StateFailed)
		return domain.Payment{}, &domain.ValidationError{Field: "file", Message: "payment slip is required"}
	}
	p.set(StateFailed)
	return domain.Payment{}, domain.ErrPaymentUnavailable
}
