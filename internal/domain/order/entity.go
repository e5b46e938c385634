// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryMethod is how a placed order reaches the customer
type DeliveryMethod string

const (
	DeliveryOrdinary DeliveryMethod = "ord"
	DeliveryExpress  DeliveryMethod = "exp"
)

// PaymentMethod selects the payment flow after placing
type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "card"
	PaymentAccount PaymentMethod = "account"
)

// Status is derived from the in_order and paid flags
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPlaced Status = "placed"
	StatusPaid   Status = "paid"
)

// PaymentStatus represents the outcome of one gateway attempt
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Order is built step by step during checkout. While InOrder is false it is
// the customer's single draft; the partial unique index on
// orders(user_id) WHERE in_order = false keeps it single.
type Order struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	// Contact
	FIO   string `gorm:"size:255" json:"fio"`
	Email string `gorm:"size:255" json:"email"`
	Phone string `gorm:"size:20" json:"phone"`

	// Delivery
	Delivery DeliveryMethod `gorm:"size:10" json:"delivery"`
	City     string         `gorm:"size:100" json:"city"`
	Address  string         `gorm:"size:255" json:"address"`

	// Payment
	PaymentMethod PaymentMethod `gorm:"size:20" json:"payment_method"`
	Paid          bool          `gorm:"not null;default:false" json:"paid"`
	TransactionID *string       `gorm:"size:255" json:"transaction_id"`

	InOrder            bool            `gorm:"not null;default:false;index" json:"in_order"`
	TotalSum           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_sum"`
	TotalDiscountedSum decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_discounted_sum"`

	PlacedAt  *time.Time `json:"placed_at"`
	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relationships
	Products      []OrderProduct       `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"products,omitempty"`
	Payments      []Payment            `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"payments,omitempty"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderProduct is a cart line frozen into a placed order
type OrderProduct struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	SellerProductID uint            `gorm:"not null;index" json:"seller_product_id"`
	Name            string          `gorm:"not null;size:255" json:"name"`
	SellerName      string          `gorm:"size:255" json:"seller_name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	DiscountedPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discounted_price"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Payment represents one gateway charge attempt
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	Method        PaymentMethod   `gorm:"not null;size:20" json:"method"`
	Gateway       string          `gorm:"size:50" json:"gateway"`
	TransactionID string          `gorm:"size:255" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status        PaymentStatus   `gorm:"not null;size:20" json:"status"`
	Message       string          `gorm:"type:text" json:"message"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    Status    `gorm:"not null;size:20" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderProduct) TableName() string       { return "order_products" }
func (Payment) TableName() string            { return "payments" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Business methods for Order

// Number formats the customer-facing order number
func (o *Order) Number() string {
	// Format: ORD-YYYYMMDD-XXXXX
	return fmt.Sprintf("ORD-%s-%05d", o.CreatedAt.Format("20060102"), o.ID)
}

// Status reports where the order is in its lifecycle
func (o *Order) Status() Status {
	switch {
	case o.Paid:
		return StatusPaid
	case o.InOrder:
		return StatusPlaced
	default:
		return StatusDraft
	}
}

// IsOwnedBy checks that the order belongs to the user
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// TotalQuantity sums the product quantities
func (o *Order) TotalQuantity() int {
	total := 0
	for _, p := range o.Products {
		total += p.Quantity
	}
	return total
}

// ChargeAmount is the amount sent to the gateway, always two decimals
func (o *Order) ChargeAmount() string {
	return o.TotalDiscountedSum.StringFixed(2)
}

// Contact holds the step one fields
type Contact struct {
	FIO   string
	Email string
	Phone string
}

// Shipping holds the step two fields
type Shipping struct {
	Delivery DeliveryMethod
	City     string
	Address  string
}

// Placement freezes a draft into a placed order
type Placement struct {
	PaymentMethod      PaymentMethod
	Products           []OrderProduct
	TotalSum           decimal.Decimal
	TotalDiscountedSum decimal.Decimal
}
