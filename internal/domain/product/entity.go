// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog card shared by every seller offering it
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Image       *string   `gorm:"size:500" json:"image"`
	Rating      float64   `gorm:"default:0" json:"rating"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Category       Category               `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Tags           []Tag                  `gorm:"many2many:product_tags;" json:"tags,omitempty"`
	Specifications []ProductSpecification `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"specifications,omitempty"`
	Comments       []ProductComment       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"comments,omitempty"`
}

// Category represents product categories
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Icon      string    `gorm:"size:500" json:"icon"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Seller is a shop offering products in the catalog
type Seller struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Email       string    `gorm:"size:255" json:"email"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Address     string    `gorm:"size:255" json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SellerProduct is one seller's offer of a product. Cart lines reference
// this row, not the catalog card.
type SellerProduct struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ProductID  uint            `gorm:"not null;index;uniqueIndex:idx_seller_product" json:"product_id"`
	SellerID   uint            `gorm:"not null;index;uniqueIndex:idx_seller_product" json:"seller_id"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity   int             `gorm:"default:0" json:"quantity"`
	DiscountID *uint           `gorm:"index" json:"discount_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Relationships
	Product  Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"product"`
	Seller   Seller    `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE;" json:"seller"`
	Discount *Discount `gorm:"foreignKey:DiscountID;constraint:OnDelete:SET NULL;" json:"discount,omitempty"`
}

// DiscountKind selects how a discount value is applied
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountAmount  DiscountKind = "amount"
)

// Discount is a per-offer price reduction
type Discount struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Kind        DiscountKind    `gorm:"size:20;not null;default:'percent'" json:"kind"`
	Value       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	ValidFrom   *time.Time      `json:"valid_from"`
	ValidTo     *time.Time      `json:"valid_to"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ActiveAt reports whether the discount applies at the given moment
func (d *Discount) ActiveAt(t time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if d.ValidFrom != nil && t.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidTo != nil && t.After(*d.ValidTo) {
		return false
	}
	return true
}

// Specification is an attribute name such as "color"
type Specification struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:255" json:"name"`
}

// ProductSpecification is the value of one attribute on one product
type ProductSpecification struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	ProductID       uint   `gorm:"not null;uniqueIndex:idx_product_spec" json:"product_id"`
	SpecificationID uint   `gorm:"not null;uniqueIndex:idx_product_spec" json:"specification_id"`
	Value           string `gorm:"not null;size:255" json:"value"`

	Specification Specification `gorm:"foreignKey:SpecificationID;constraint:OnDelete:CASCADE;" json:"specification"`
}

// Tag labels products for the tag filter
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:100" json:"name"`
}

// ProductComment is a customer review left on a product card
type ProductComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Author    string    `gorm:"size:255" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ViewedProduct records that a customer opened a product card
type ViewedProduct struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_viewed_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_viewed_user_product" json:"product_id"`
	ViewedAt  time.Time `gorm:"not null;index" json:"viewed_at"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"product"`
}

// TableName overrides
func (Product) TableName() string              { return "products" }
func (Category) TableName() string             { return "categories" }
func (Seller) TableName() string               { return "sellers" }
func (SellerProduct) TableName() string        { return "seller_products" }
func (Discount) TableName() string             { return "discounts" }
func (Specification) TableName() string        { return "specifications" }
func (ProductSpecification) TableName() string { return "product_specifications" }
func (Tag) TableName() string                  { return "tags" }
func (ProductComment) TableName() string       { return "product_comments" }
func (ViewedProduct) TableName() string        { return "viewed_products" }

// Business methods for SellerProduct
func (sp *SellerProduct) IsInStock() bool {
	return sp.Quantity > 0
}

// SpecMap flattens the product's specifications into name -> value
func (p *Product) SpecMap() map[string]string {
	specs := make(map[string]string, len(p.Specifications))
	for _, s := range p.Specifications {
		specs[s.Specification.Name] = s.Value
	}
	return specs
}

// TagNames returns the product tags as plain strings
func (p *Product) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, strings.ToLower(t.Name))
	}
	return names
}
