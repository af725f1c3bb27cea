package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprouting-academy/internal/domain"
)

// Pinger reports whether the guest cart store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps groups the services the router needs.
type Deps struct {
	GuestKeys   guestKeyService
	Carts       cartService
	Catalog     catalogService
	Checkout    checkoutService
	Store       Pinger
	CORSOrigins []string
}

// buildRouter wires routes for the storefront gateway.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(requestLogger(logger), gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", headerCartKey},
			ExposeHeaders:    []string{headerCartKey},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	router.POST("/guest", issueGuestHandler(deps.GuestKeys))

	api := router.Group("/", sessionMiddleware(deps.GuestKeys))
	api.GET("/cart", getCartHandler(deps.Carts))
	api.POST("/cart/items", addCartItemHandler(deps.Carts, deps.Catalog))
	api.DELETE("/cart/items/:id", removeCartItemHandler(deps.Carts))

	api.POST("/auth/sync", syncHandler(deps.Carts))
	api.POST("/auth/logout", logoutHandler(deps.Carts))

	api.POST("/checkout", openCheckoutHandler(deps.Checkout))
	api.GET("/checkout/:visitId", checkoutViewHandler(deps.Checkout))
	api.POST("/checkout/:visitId/coupon", applyCouponHandler(deps.Checkout))
	api.POST("/checkout/:visitId/payments/card", cardPaymentHandler(deps.Checkout))
	api.POST("/checkout/:visitId/payments/bank-transfer", slipPaymentHandler(deps.Checkout, domain.PaymentMethodBankTransfer))
	api.POST("/checkout/:visitId/payments/promptpay", slipPaymentHandler(deps.Checkout, domain.PaymentMethodPromptPay))
	api.DELETE("/checkout/:visitId", closeCheckoutHandler(deps.Checkout))

	return router, nil
}
