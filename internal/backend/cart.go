package backend

import (
	"context"
	"net/http"
	"net/url"

	"sprouting-academy/internal/domain"
)

// CartEntry is a server cart line as returned by GET /cart.
type CartEntry struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"productId"`
	ProductType    domain.ItemType `json:"productType"`
	ProductName    string          `json:"productName"`
	Price          int64           `json:"price"`
	Date           string          `json:"date,omitempty"`
	TotalTime      string          `json:"totalTime,omitempty"`
	ClassType      string          `json:"classType,omitempty"`
	AvailableDates []string        `json:"availableDates,omitempty"`
	StartDate      string          `json:"startDate,omitempty"`
	Duration       string          `json:"duration,omitempty"`
	Schedule       string          `json:"schedule,omitempty"`
	Features       []string        `json:"features,omitempty"`
	PageCount      *int            `json:"pageCount,omitempty"`
}

type serverCart struct {
	Items []CartEntry `json:"items"`
}

type addCartItemRequest struct {
	CourseID    string          `json:"courseId"`
	ProductType domain.ItemType `json:"productType,omitempty"`
}

// GetCart fetches the signed in customer's server cart.
func (c *Client) GetCart(ctx context.Context, token string) ([]CartEntry, error) {
	var out serverCart
	if err := c.doJSON(ctx, http.MethodGet, "/cart", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AddCartItem adds one product to the server cart.
func (c *Client) AddCartItem(ctx context.Context, token, productID string, productType domain.ItemType) error {
	return c.doJSON(ctx, http.MethodPost, "/cart/items", token, addCartItemRequest{
		CourseID:    productID,
		ProductType: productType,
	}, nil)
}

// RemoveCartItem removes a server cart entry by its entry id.
func (c *Client) RemoveCartItem(ctx context.Context, token, entryID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(entryID), token, nil, nil)
}
