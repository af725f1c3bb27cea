package backend

import (
	"context"
	"net/http"
	"net/url"

	"sprouting-academy/internal/domain"
)

// CreateOrderRequest is the POST /order payload.
type CreateOrderRequest struct {
	Items    []domain.OrderLine `json:"items"`
	CouponID *string            `json:"couponId,omitempty"`
}

func (c *Client) CreateOrder(ctx context.Context, token string, in CreateOrderRequest) (*domain.Order, error) {
	var out domain.Order
	if err := c.doJSON(ctx, http.MethodPost, "/order", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	var out domain.Order
	if err := c.doJSON(ctx, http.MethodGet, "/order/"+url.PathEscape(orderID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder asks the backend to cancel an abandoned order.
func (c *Client) CancelOrder(ctx context.Context, token, orderID string) error {
	return c.doJSON(ctx, http.MethodPost, "/order/"+url.PathEscape(orderID)+"/cancel", token, nil, nil)
}
