package backend

import (
	"errors"
	"fmt"
	"net/http"

	"sprouting-academy/internal/domain"
)

// Server error codes that mean the product is already in the server cart.
var itemExistsCodes = map[string]struct{}{
	domain.CodeItemAlreadyExists: {},
	"CART_ITEM_ALREADY_EXISTS":   {},
	"ITEM_ALREADY_IN_CART":       {},
}

// APIError is a failed backend envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, msg)
}

// Is lets callers match server-side duplicates and missing resources with the
// domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrItemAlreadyExists:
		_, ok := itemExistsCodes[e.Code]
		return ok
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// IsAPIError reports whether err carries a backend envelope error.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
