package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sprouting-academy/internal/backend"
	"sprouting-academy/internal/domain"
	"sprouting-academy/internal/service/anonymous"
	"sprouting-academy/internal/service/payment"
)

type envelope struct {
	IsSuccessful    bool          `json:"isSuccessful"`
	ResponseContent interface{}   `json:"responseContent,omitempty"`
	ErrorMessage    string        `json:"errorMessage,omitempty"`
	ErrorDetails    *errorDetails `json:"errorDetails,omitempty"`
}

type errorDetails struct {
	Code     string `json:"code"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

const (
	codeValidation         = "VALIDATION_ERROR"
	codeNotFound           = "NOT_FOUND"
	codeUnauthenticated    = "UNAUTHENTICATED"
	codeEmptyCart          = "EMPTY_CART"
	codePaymentUnavailable = "PAYMENT_UNAVAILABLE"
	codePaymentInProgress  = "PAYMENT_IN_PROGRESS"
	codePaymentFailed      = "PAYMENT_FAILED"
	codeInvalidCartKey     = "INVALID_CART_KEY"
	codeUpstream           = "UPSTREAM_ERROR"
	codeInternal           = "INTERNAL_ERROR"
)

func writeOK(c *gin.Context, status int, content interface{}) {
	c.JSON(status, envelope{IsSuccessful: true, ResponseContent: content})
}

func writeFailure(c *gin.Context, status int, message string, details errorDetails) {
	c.AbortWithStatusJSON(status, envelope{IsSuccessful: false, ErrorMessage: message, ErrorDetails: &details})
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status, details := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		msg = "internal error"
	}
	_ = c.Error(err)
	writeFailure(c, status, msg, details)
}

func classify(err error) (int, errorDetails) {
	var (
		verr *domain.ValidationError
		terr *payment.TokenizeError
		aerr *backend.APIError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, errorDetails{Code: codeValidation, Field: verr.Field}
	case errors.Is(err, domain.ErrItemAlreadyExists):
		return http.StatusConflict, errorDetails{Code: domain.CodeItemAlreadyExists}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorDetails{Code: codeUnauthenticated}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorDetails{Code: codeNotFound}
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity, errorDetails{Code: codeEmptyCart}
	case errors.Is(err, domain.ErrPaymentUnavailable):
		return http.StatusUnprocessableEntity, errorDetails{Code: codePaymentUnavailable}
	case errors.Is(err, domain.ErrPaymentInProgress):
		return http.StatusConflict, errorDetails{Code: codePaymentInProgress}
	case errors.Is(err, anonymous.ErrInvalidCartKey):
		return http.StatusBadRequest, errorDetails{Code: codeInvalidCartKey}
	case errors.As(err, &terr):
		return http.StatusUnprocessableEntity, errorDetails{Code: codePaymentFailed}
	case errors.As(err, &aerr):
		code := aerr.Code
		if code == "" {
			code = codeUpstream
		}
		return http.StatusBadGateway, errorDetails{Code: code}
	default:
		return http.StatusInternalServerError, errorDetails{Code: codeInternal}
	}
}
