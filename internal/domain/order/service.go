// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDraftNotFound = errors.New("draft order not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrAlreadyPlaced = errors.New("order already placed")
	ErrAlreadyPaid   = errors.New("order already paid")
	ErrNotPlaced     = errors.New("order is not placed yet")
)

// Service handles order persistence for checkout, payment and history
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListResponse represents order history with pagination
type ListResponse struct {
	Orders     []Order            `json:"orders"`
	Pagination product.Pagination `json:"pagination"`
}

// GetOrCreateDraft returns the user's draft, creating it when missing.
// Concurrent callers end up with the same row.
func (s *Service) GetOrCreateDraft(ctx context.Context, userID uint) (*Order, error) {
	draft := Order{UserID: userID}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "user_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Eq{Column: clause.Column{Name: "in_order"}, Value: false}}},
		DoNothing:   true,
	}).Create(&draft).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create draft order: %w", err)
	}

	return s.FindDraft(ctx, userID)
}

// FindDraft returns the user's draft order
func (s *Service) FindDraft(ctx context.Context, userID uint) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND in_order = ?", userID, false).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to retrieve draft order: %w", err)
	}
	return &o, nil
}

// UpdateContact writes the step one fields onto a draft
func (s *Service) UpdateContact(ctx context.Context, orderID uint, c Contact) error {
	return s.updateDraft(ctx, orderID, map[string]interface{}{
		"fio":   c.FIO,
		"email": c.Email,
		"phone": c.Phone,
	})
}

// UpdateShipping writes the step two fields onto a draft
func (s *Service) UpdateShipping(ctx context.Context, orderID uint, sh Shipping) error {
	return s.updateDraft(ctx, orderID, map[string]interface{}{
		"delivery": sh.Delivery,
		"city":     sh.City,
		"address":  sh.Address,
	})
}

func (s *Service) updateDraft(ctx context.Context, orderID uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := s.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND in_order = ?", orderID, false).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update draft order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// Place turns a draft into a placed order in one transaction: the flag
// flips only if it is still false, the products are frozen, and
// afterPlace runs on the same transaction.
func (s *Service) Place(ctx context.Context, orderID uint, p Placement, afterPlace func(tx *gorm.DB) error) (*Order, error) {
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND in_order = ?", orderID, false).
			Updates(map[string]interface{}{
				"in_order":             true,
				"payment_method":       p.PaymentMethod,
				"total_sum":            p.TotalSum,
				"total_discounted_sum": p.TotalDiscountedSum,
				"placed_at":            now,
				"updated_at":           now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to place order: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return ErrAlreadyPlaced
		}

		products := make([]OrderProduct, len(p.Products))
		for i, op := range p.Products {
			op.OrderID = orderID
			products[i] = op
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return fmt.Errorf("failed to create order products: %w", err)
			}
		}

		history := OrderStatusHistory{OrderID: orderID, Status: StatusPlaced, Comment: "Order placed"}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		if afterPlace != nil {
			return afterPlace(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, orderID)
}

// LastPlaced returns the user's most recent placed order
func (s *Service) LastPlaced(ctx context.Context, userID uint) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Preload("Products").
		Where("user_id = ? AND in_order = ?", userID, true).
		Order("placed_at DESC, id DESC").
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve last order: %w", err)
	}
	return &o, nil
}

// Get retrieves a single order by ID
func (s *Service) Get(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Preload("Products").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// GetForUser retrieves an order the user owns; anyone else sees not found
func (s *Service) GetForUser(ctx context.Context, id, userID uint) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// MarkPaid flags a placed order as paid and stores the transaction id
func (s *Service) MarkPaid(ctx context.Context, orderID uint, transactionID string) error {
	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND in_order = ? AND paid = ?", orderID, true, false).
			Updates(map[string]interface{}{
				"paid":           true,
				"transaction_id": transactionID,
				"paid_at":        now,
				"updated_at":     now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark order paid: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyPaid
		}

		history := OrderStatusHistory{OrderID: orderID, Status: StatusPaid, Comment: "Payment received"}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
}

// RecordPayment stores a gateway attempt
func (s *Service) RecordPayment(ctx context.Context, p *Payment) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// ListForUser retrieves the user's placed orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, page, limit int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := s.db.WithContext(ctx).
		Model(&Order{}).
		Where("user_id = ? AND in_order = ?", userID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (page - 1) * limit
	if err := query.
		Preload("Products").
		Order("placed_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: product.NewPagination(page, limit, total),
	}, nil
}

// CountPlaced returns how many orders the user placed
func (s *Service) CountPlaced(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Order{}).
		Where("user_id = ? AND in_order = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
