package backend

import (
	"context"
	"net/http"

	"sprouting-academy/internal/domain"
)

// CurrentUser resolves the signed in customer.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/user/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
