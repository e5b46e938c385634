// internal/domain/discount/resolver.go
package discount

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// Resolver computes effective unit prices for seller offers
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a resolver using the wall clock
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverAt creates a resolver with a fixed clock
func NewResolverAt(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Now is the time discounts are evaluated at
func (r *Resolver) Now() time.Time {
	return r.now()
}

// DiscountedPrice returns the unit price after the offer's discount.
// An offer without an active discount costs its list price.
func (r *Resolver) DiscountedPrice(sp *product.SellerProduct) decimal.Decimal {
	price := sp.Price
	d := sp.Discount
	if !d.ActiveAt(r.now()) {
		return price.Round(2)
	}

	switch d.Kind {
	case product.DiscountPercent:
		p := decimal.Min(decimal.Max(d.Value, decimal.Zero), hundred)
		return price.Mul(hundred.Sub(p)).Div(hundred).Round(2)
	case product.DiscountAmount:
		return decimal.Max(price.Sub(d.Value), decimal.Zero).Round(2)
	default:
		return price.Round(2)
	}
}
