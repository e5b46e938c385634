// internal/domain/product/filter.go
package product

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort keys accepted by the storefront filter
const (
	SortByPrice    = "price"
	SortByComments = "comments"
)

// FilterRequest represents the storefront filter query parameters
type FilterRequest struct {
	Price    string `form:"price"`
	InStock  string `form:"in_stock"`
	Tag      string `form:"tag"`
	Seller   string `form:"seller"`
	Title    string `form:"title"`
	Category string `form:"category"`
	Sort     string `form:"sort"`
	Desc     int    `form:"desc"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

// PriceRange is an inclusive bound on the discounted price
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// ParsePriceRange parses the "min;max" slider value
func ParsePriceRange(raw string) (*PriceRange, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ";")
	if len(parts) != 2 {
		return nil, fmt.Errorf("price must look like min;max")
	}

	min, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid minimum price: %w", err)
	}
	max, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid maximum price: %w", err)
	}
	if min.GreaterThan(max) {
		min, max = max, min
	}

	return &PriceRange{Min: min, Max: max}, nil
}

// normalize clamps paging values
func (r *FilterRequest) normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

// apply narrows a seller_products query. A tag replaces every other
// filter, the way the storefront sidebar links work. Prices are compared
// after the discount in force at now.
func (r *FilterRequest) apply(db *gorm.DB, now time.Time) (*gorm.DB, error) {
	if r.Tag != "" {
		return db.Where(
			"seller_products.product_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Table("product_tags").
				Select("product_tags.product_id").
				Joins("JOIN tags ON tags.id = product_tags.tag_id").
				Where("LOWER(tags.name) = ?", strings.ToLower(r.Tag)),
		), nil
	}

	price, err := ParsePriceRange(r.Price)
	if err != nil {
		return nil, err
	}
	if price != nil {
		db = db.Where("? BETWEEN ? AND ?", discountedPrice(now), price.Min, price.Max)
	}

	if r.InStock == "on" || r.InStock == "true" || r.InStock == "1" {
		db = db.Where("seller_products.quantity >= ?", 1)
	}

	if r.Seller != "" {
		db = db.Where("LOWER(sellers.name) LIKE ?", like(r.Seller))
	}
	if r.Title != "" {
		db = db.Where("LOWER(products.name) LIKE ?", like(r.Title))
	}
	if r.Category != "" {
		db = db.Where("LOWER(categories.name) LIKE ?", like(r.Category))
	}

	return db, nil
}

// orderBy builds the ORDER BY clause; unknown keys fall back to id
func (r *FilterRequest) orderBy(now time.Time) clause.OrderBy {
	direction := "ASC"
	if r.Desc == 1 {
		direction = "DESC"
	}

	switch r.Sort {
	case SortByPrice:
		price := discountedPrice(now)
		price.SQL += " " + direction
		return clause.OrderBy{Expression: price}
	case SortByComments:
		return clause.OrderBy{Expression: clause.Expr{
			SQL: "(SELECT COUNT(*) FROM product_comments WHERE product_comments.product_id = seller_products.product_id) " + direction,
		}}
	default:
		return clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Table: "seller_products", Name: "id"}},
		}}
	}
}

func like(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
