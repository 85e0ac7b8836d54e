// Package coupon validates promotional codes against a cart value.
package coupon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	TypeFixed      = "fixed"
	TypePercentage = "percentage"
	TypeFreeShip   = "freeship"
)

var (
	ErrCodeRequired = errors.New("coupon code is required")
	ErrUnknownCode  = errors.New("invalid coupon code")
	ErrBelowMinimum = errors.New("cart value below coupon minimum")
)

type Coupon struct {
	Code     string
	Type     string
	Discount decimal.Decimal
	MinOrder decimal.Decimal
	// MaxDiscount caps percentage coupons. Zero means no cap.
	MaxDiscount decimal.Decimal
}

type Result struct {
	Code     string
	Type     string
	Discount decimal.Decimal
}

// MinimumError carries the minimum order value of the rejected coupon.
type MinimumError struct {
	MinOrder decimal.Decimal
}

func (e *MinimumError) Error() string {
	return fmt.Sprintf("minimum order value of %s required", e.MinOrder)
}

func (e *MinimumError) Unwrap() error {
	return ErrBelowMinimum
}

type Book struct {
	coupons map[string]Coupon
}

func New(coupons ...Coupon) *Book {
	b := &Book{coupons: make(map[string]Coupon, len(coupons))}
	for _, c := range coupons {
		b.coupons[strings.ToUpper(c.Code)] = c
	}

	return b
}

// Default is the coupon table the shop runs with.
func Default() *Book {
	return New(
		Coupon{Code: "FIRST100", Type: TypeFixed, Discount: decimal.NewFromInt(100), MinOrder: decimal.NewFromInt(500)},
		Coupon{Code: "NEWUSER20", Type: TypePercentage, Discount: decimal.NewFromInt(20), MaxDiscount: decimal.NewFromInt(200)},
		Coupon{Code: "BULK300", Type: TypeFixed, Discount: decimal.NewFromInt(300), MinOrder: decimal.NewFromInt(3000)},
		Coupon{Code: "FREESHIP", Type: TypeFreeShip, MinOrder: decimal.NewFromInt(10000)},
		Coupon{Code: "DIWALI200", Type: TypeFixed, Discount: decimal.NewFromInt(200), MinOrder: decimal.NewFromInt(1000)},
		Coupon{Code: "OFFICE50", Type: TypeFixed, Discount: decimal.NewFromInt(50)},
	)
}

// Apply looks code up case-insensitively and computes the discount for
// cartValue. Free shipping coupons carry no monetary discount.
func (b *Book) Apply(code string, cartValue decimal.Decimal) (Result, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Result{}, ErrCodeRequired
	}

	c, ok := b.coupons[code]
	if !ok {
		return Result{}, ErrUnknownCode
	}

	if cartValue.LessThan(c.MinOrder) {
		return Result{}, &MinimumError{MinOrder: c.MinOrder}
	}

	discount := decimal.Zero

	switch c.Type {
	case TypeFixed:
		discount = c.Discount
	case TypePercentage:
		discount = cartValue.Mul(c.Discount).Div(decimal.NewFromInt(100))
		if c.MaxDiscount.IsPositive() && discount.GreaterThan(c.MaxDiscount) {
			discount = c.MaxDiscount
		}
	}

	return Result{Code: code, Type: c.Type, Discount: discount}, nil
}
