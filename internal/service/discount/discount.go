// Package discount computes package discounts and coupon stacking for the
// selected cart lines. Everything here is pure.
package discount

import (
	"strings"

	"sprouting-academy/internal/domain"
)

// coupons maps a normalized coupon code to a flat amount off.
var coupons = map[string]int64{
	"TEST500":  500,
	"TEST1000": 1000,
}

// Result is the client-side price estimate for a selection.
type Result struct {
	TotalPrice      int64  `json:"totalPrice"`
	CourseSubtotal  int64  `json:"courseSubtotal"`
	CourseCount     int    `json:"courseCount"`
	DiscountPercent int64  `json:"discountPercent"`
	DiscountAmount  int64  `json:"discountAmount"`
	CouponCode      string `json:"couponCode,omitempty"`
	CouponDiscount  int64  `json:"couponDiscount"`
	FinalPrice      int64  `json:"finalPrice"`
}

// PackagePercent is the tiered discount for the number of selected courses.
func PackagePercent(courseCount int) int64 {
	switch {
	case courseCount >= 3:
		return 20
	case courseCount == 2:
		return 10
	default:
		return 0
	}
}

// PackageAmount floors courseSubtotal * percent / 100.
func PackageAmount(courseSubtotal, percent int64) int64 {
	if courseSubtotal <= 0 || percent <= 0 {
		return 0
	}
	return courseSubtotal * percent / 100
}

// NormalizeCoupon trims and upper-cases a coupon code.
func NormalizeCoupon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponDiscount looks up the flat amount for a code. Unknown codes are worth 0.
func CouponDiscount(code string) int64 {
	return coupons[NormalizeCoupon(code)]
}

// ValidCoupon reports whether the code is in the coupon table.
func ValidCoupon(code string) bool {
	_, ok := coupons[NormalizeCoupon(code)]
	return ok
}

// Calculate prices the checked items. Only courses count toward and receive
// the package discount; the coupon applies to the whole selection.
func Calculate(checked []domain.CartItem, couponCode string) Result {
	var res Result
	for _, item := range checked {
		res.TotalPrice += item.Price
		if item.ItemType == domain.ItemTypeCourse {
			res.CourseCount++
			res.CourseSubtotal += item.Price
		}
	}
	res.DiscountPercent = PackagePercent(res.CourseCount)
	res.DiscountAmount = PackageAmount(res.CourseSubtotal, res.DiscountPercent)

	if len(checked) > 0 && ValidCoupon(couponCode) {
		res.CouponCode = NormalizeCoupon(couponCode)
		res.CouponDiscount = CouponDiscount(couponCode)
	}

	res.FinalPrice = res.TotalPrice - res.DiscountAmount - res.CouponDiscount
	if res.FinalPrice < 0 {
		res.FinalPrice = 0
	}
	return res
}
