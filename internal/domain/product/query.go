// internal/domain/product/query.go
package product

import (
	"fmt"

	"gorm.io/gorm"
)

// Query selects which seller offers a catalog page lists.
// Implementations: ByCategory, BySeller, All.
type Query interface {
	isQuery()
}

// ByCategory lists offers whose product belongs to a category
type ByCategory struct {
	CategoryID uint
}

// BySeller lists the offers of a single shop
type BySeller struct {
	SellerID uint
}

// All lists every offer
type All struct{}

func (ByCategory) isQuery() {}
func (BySeller) isQuery()   {}
func (All) isQuery()        {}

// scopeFor turns a Query into a gorm scope over seller_products joined
// with products, sellers and categories
func scopeFor(q Query) (func(*gorm.DB) *gorm.DB, error) {
	switch q := q.(type) {
	case ByCategory:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("products.category_id = ?", q.CategoryID)
		}, nil
	case BySeller:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("seller_products.seller_id = ?", q.SellerID)
		}, nil
	case All:
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	default:
		return nil, fmt.Errorf("unsupported catalog query %T", q)
	}
}
