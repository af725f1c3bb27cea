package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
	"sprouting-academy/internal/service/checkout"
	"sprouting-academy/internal/service/payment"
)

// catalogPath is where the view sends the buyer when checkout cannot start.
const catalogPath = "/courses"

type checkoutService interface {
	Open(ctx context.Context, sess auth.Session, itemIDs []string, couponCode string) (*checkout.View, error)
	View(ctx context.Context, sess auth.Session, visitID string) (*checkout.View, error)
	ApplyCoupon(sess auth.Session, visitID, code string) (*checkout.View, error)
	Pay(ctx context.Context, sess auth.Session, visitID string, contact domain.ContactInfo, p payment.Payload) (*domain.Confirmation, error)
	Close(ctx context.Context, sess auth.Session, visitID string) error
}

type couponRequest struct {
	Code string `json:"code"`
}

type cardPaymentRequest struct {
	Contact domain.ContactInfo `json:"contact"`
	Card    payment.CardForm   `json:"card"`
}

func openCheckoutHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := checkout.ParseSelection(c.Query("items"))
		view, err := svc.Open(c.Request.Context(), sessionFrom(c), ids, c.Query("coupon"))
		if err != nil {
			writeOpenError(c, err)
			return
		}
		writeOK(c, http.StatusCreated, view)
	}
}

// writeOpenError points the buyer back to the catalog, since a checkout
// without an order cannot proceed.
func writeOpenError(c *gin.Context, err error) {
	status, details := classify(err)
	if errors.Is(err, domain.ErrEmptyCart) || backend.IsAPIError(err) || status >= http.StatusInternalServerError {
		details.Redirect = catalogPath
	}
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeFailure(c, status, msg, details)
}

func checkoutViewHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.View(c.Request.Context(), sessionFrom(c), c.Param("visitId"))
		if err != nil {
			writeError(c, err)
			return
		}
		writeOK(c, http.StatusOK, view)
	}
}

func applyCouponHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, &domain.ValidationError{Field: "code", Message: "invalid coupon payload"})
			return
		}
		view, err := svc.ApplyCoupon(sessionFrom(c), c.Param("visitId"), req.Code)
		if err != nil {
			writeError(c, err)
			return
		}
		writeOK(c, http.StatusOK, view)
	}
}

func cardPaymentHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cardPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, &domain.ValidationError{Field: "body", Message: "invalid card payment payload"})
			return
		}
		pay(c, svc, req.Contact, req.Card)
	}
}

func slipPaymentHandler(svc checkoutService, method domain.PaymentMethod) gin.HandlerFunc {
	return func(c *gin.Context) {
		var contact domain.ContactInfo
		if err := c.ShouldBind(&contact); err != nil {
			writeError(c, &domain.ValidationError{Field: "body", Message: "invalid payment form"})
			return
		}
		file, err := readAttachment(c)
		if err != nil {
			writeError(c, err)
			return
		}
		var p payment.Payload = payment.BankTransferForm{File: file}
		if method == domain.PaymentMethodPromptPay {
			p = payment.PromptPayForm{File: file}
		}
		pay(c, svc, contact, p)
	}
}

// readAttachment returns nil when no file was sent; the payment method
// reports the missing file in its own validation order.
func readAttachment(c *gin.Context) (*payment.Attachment, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.ValidationError{Field: "file", Message: "unreadable upload"}
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, payment.MaxSlipSize+1))
	if err != nil {
		return nil, err
	}
	return &payment.Attachment{Filename: header.Filename, Data: data}, nil
}

func pay(c *gin.Context, svc checkoutService, contact domain.ContactInfo, p payment.Payload) {
	conf, err := svc.Pay(c.Request.Context(), sessionFrom(c), c.Param("visitId"), contact, p)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, conf)
}

func closeCheckoutHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Close(c.Request.Context(), sessionFrom(c), c.Param("visitId")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
