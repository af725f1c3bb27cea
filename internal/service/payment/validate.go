package payment

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sprouting-academy/internal/domain"
)

var validate = validator.New()

// ValidLuhn reports whether number passes the Luhn checksum. Spaces and
// dashes are ignored; anything else that is not a digit fails.
func ValidLuhn(number string) bool {
	digits := stripSeparators(number)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		ch := digits[i]
		if ch < '0' || ch > '9' {
			return false
		}
		d := int(ch - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// ValidateContact is the gate every payment method passes before submit.
// Only the first violated rule is reported, in name, phone, email order.
func ValidateContact(c domain.ContactInfo) error {
	if strings.TrimSpace(c.Name) == "" {
		return &domain.ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return &domain.ValidationError{Field: "phone", Message: "phone is required"}
	}
	if n := len(NormalizePhone(c.Phone)); n < 9 || n > 10 {
		return &domain.ValidationError{Field: "phone", Message: "phone must have 9 to 10 digits"}
	}
	if err := validate.Var(strings.TrimSpace(c.Email), "required,email"); err != nil {
		return &domain.ValidationError{Field: "email", Message: "email is invalid"}
	}
	return nil
}

// ValidateCard runs the card checks in order and stops at the first failure.
func ValidateCard(f CardForm, now time.Time) error {
	if strings.TrimSpace(f.OrderID) == "" {
		return &domain.ValidationError{Field: "orderId", Message: "order id is required"}
	}
	if !ValidLuhn(f.Number) {
		return &domain.ValidationError{Field: "number", Message: "card number is invalid"}
	}
	if strings.TrimSpace(f.Name) == "" {
		return &domain.ValidationError{Field: "name", Message: "name on card is required"}
	}
	if strings.TrimSpace(f.ExpiryMonth) == "" || strings.TrimSpace(f.ExpiryYear) == "" {
		return &domain.ValidationError{Field: "expiry", Message: "expiry month and year are required"}
	}
	month, err := strconv.Atoi(strings.TrimSpace(f.ExpiryMonth))
	if err != nil || month < 1 || month > 12 {
		return &domain.ValidationError{Field: "expiryMonth", Message: "expiry month must be between 1 and 12"}
	}
	year, err := expiryYear(f.ExpiryYear)
	if err != nil {
		return &domain.ValidationError{Field: "expiryYear", Message: "expiry year is invalid"}
	}
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return &domain.ValidationError{Field: "expiry", Message: "card has expired"}
	}
	cvc := strings.TrimSpace(f.SecurityCode)
	if len(cvc) < 3 || len(cvc) > 4 || NormalizePhone(cvc) != cvc {
		return &domain.ValidationError{Field: "securityCode", Message: "security code must be 3 or 4 digits"}
	}
	return nil
}

func expiryYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if year < 100 {
		year += 2000
	}
	return year, nil
}
