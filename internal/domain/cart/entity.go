// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/product"
)

// CartItem represents a cart line stored in database for authenticated users
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// Line is one product reference in a cart. ProductID points at a seller
// offer. Quantity is always at least 1.
type Line struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Item is a cart line joined with its offer and prices
type Item struct {
	ProductID       uint                   `json:"product_id"`
	Quantity        int                    `json:"quantity"`
	Product         *product.SellerProduct `json:"product"`
	Price           decimal.Decimal        `json:"price"`
	DiscountedPrice decimal.Decimal        `json:"discounted_price"`
	Total           decimal.Decimal        `json:"total"`
	DiscountedTotal decimal.Decimal        `json:"discounted_total"`
}

// Summary represents a shopping cart with items and totals
type Summary struct {
	Items                []Item          `json:"items"`
	TotalQuantity        int             `json:"total"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	TotalDiscountedPrice decimal.Decimal `json:"total_discounted_price"`
}
