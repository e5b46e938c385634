// internal/domain/product/pricing.go
package product

import (
	"time"

	"gorm.io/gorm/clause"
)

// discountedPriceSQL is the effective unit price of a seller_products row,
// computed from its discount at the bound time. It must stay in step with
// discount.Resolver.DiscountedPrice and expects discounts LEFT JOINed on
// seller_products.discount_id. Both placeholders take the same time.
const discountedPriceSQL = "CASE WHEN discounts.id IS NOT NULL AND discounts.is_active" +
	" AND (discounts.valid_from IS NULL OR discounts.valid_from <= ?)" +
	" AND (discounts.valid_to IS NULL OR discounts.valid_to >= ?)" +
	" THEN CASE discounts.kind" +
	" WHEN 'percent' THEN ROUND(seller_products.price * (100 - LEAST(GREATEST(discounts.value, 0), 100)) / 100, 2)" +
	" WHEN 'amount' THEN ROUND(GREATEST(seller_products.price - discounts.value, 0), 2)" +
	" ELSE ROUND(seller_products.price, 2) END" +
	" ELSE ROUND(seller_products.price, 2) END"

// discountedPrice returns the price expression bound to now
func discountedPrice(now time.Time) clause.Expr {
	return clause.Expr{SQL: "(" + discountedPriceSQL + ")", Vars: []interface{}{now, now}, WithoutParentheses: true}
}

// joinDiscounts attaches each offer's discount, if any
const joinDiscounts = "LEFT JOIN discounts ON discounts.id = seller_products.discount_id"
