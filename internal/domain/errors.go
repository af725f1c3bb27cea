package domain

import "errors"

// CodeItemAlreadyExists is the error code shared by guest and server carts for
// duplicate product lines.
const CodeItemAlreadyExists = "ITEM_ALREADY_EXISTS"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrItemAlreadyExists indicates the product is already in the cart.
	ErrItemAlreadyExists = errors.New(CodeItemAlreadyExists)
	// ErrEmptyCart indicates a checkout visit has nothing selected to pay for.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotAuthenticated indicates the operation needs a signed in session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPaymentUnavailable is returned by payment methods that are switched off.
	ErrPaymentUnavailable = errors.New("payment method not available")
	// ErrPaymentInProgress is returned when a submit arrives while the same
	// method is still charging or uploading.
	ErrPaymentInProgress = errors.New("payment already in progress")
)

// ValidationError is a locally detected input problem. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
