// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
	"gorm.io/gorm"
)

// ErrItemNotInCart is returned when an operation needs an existing line
var ErrItemNotInCart = errors.New("item not in cart")

// Catalog is the read-only offer lookup the cart needs
type Catalog interface {
	GetSellerProduct(ctx context.Context, id uint) (*product.SellerProduct, error)
	GetSellerProducts(ctx context.Context, ids []uint) (map[uint]*product.SellerProduct, error)
}

// Pricer returns the effective unit price of an offer
type Pricer interface {
	DiscountedPrice(sp *product.SellerProduct) decimal.Decimal
}

// SessionBackend saves sessions and serialises access to them
type SessionBackend interface {
	SessionSaver
	Lock(ctx context.Context, id string) (func(), error)
}

// Owner identifies whose cart a request works on
type Owner struct {
	UserID  *uint
	Session *session.Session
}

// Service handles cart business logic
type Service struct {
	db       *gorm.DB
	sessions SessionBackend
	catalog  Catalog
	pricer   Pricer
	logger   *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, sessions SessionBackend, catalog Catalog, pricer Pricer, logger *logrus.Logger) *Service {
	return &Service{
		db:       db,
		sessions: sessions,
		catalog:  catalog,
		pricer:   pricer,
		logger:   logger,
	}
}

// StoreFor opens the cart store of an owner: rows for a user, the session otherwise
func (s *Service) StoreFor(owner Owner) Store {
	if owner.UserID != nil {
		return NewDBStore(s.db, *owner.UserID)
	}
	return NewSessionStore(owner.Session, s.sessions)
}

// Add puts one more unit of a product in the cart
func (s *Service) Add(ctx context.Context, store Store, productID uint) error {
	if _, err := s.catalog.GetSellerProduct(ctx, productID); err != nil {
		return err
	}

	line, ok, err := store.Line(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		line = Line{ProductID: productID}
	}
	line.Quantity++

	return store.Put(ctx, line)
}

// UpdateQuantity sets the quantity of a line, clamped to at least 1. When
// productID differs from replaceID the line for replaceID is dropped, which
// swaps one offer for another in place.
func (s *Service) UpdateQuantity(ctx context.Context, store Store, productID uint, quantity int, replaceID uint) error {
	if _, err := s.catalog.GetSellerProduct(ctx, productID); err != nil {
		return err
	}

	if quantity < 1 {
		quantity = 1
	}

	if productID != replaceID {
		if err := store.Delete(ctx, replaceID); err != nil {
			return err
		}
	}

	return store.Put(ctx, Line{ProductID: productID, Quantity: quantity})
}

// Increase adds one unit to an existing line
func (s *Service) Increase(ctx context.Context, store Store, productID uint) error {
	line, ok, err := store.Line(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotInCart
	}
	line.Quantity++
	return store.Put(ctx, line)
}

// Decrease removes one unit; the last unit removes the line
func (s *Service) Decrease(ctx context.Context, store Store, productID uint) error {
	line, ok, err := store.Line(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotInCart
	}
	line.Quantity--
	return store.Put(ctx, line)
}

// Remove drops a line from the cart
func (s *Service) Remove(ctx context.Context, store Store, productID uint) error {
	return store.Delete(ctx, productID)
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, store Store) error {
	return store.Clear(ctx)
}

// Merge copies every line of src missing from dst. Lines already in dst
// keep their quantity, so merging twice changes nothing.
func Merge(ctx context.Context, dst, src Store) error {
	lines, err := src.Lines(ctx)
	if err != nil {
		return fmt.Errorf("failed to read source cart: %w", err)
	}

	for _, line := range lines {
		_, exists, err := dst.Line(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := dst.Put(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

// MergeSessionIntoUser moves the anonymous cart of sess into the user's
// cart at login. The session is locked and the rows are written in one
// transaction; the anonymous cart is cleared afterwards.
func (s *Service) MergeSessionIntoUser(ctx context.Context, sess *session.Session, userID uint) error {
	if sess == nil {
		return nil
	}

	unlock, err := s.sessions.Lock(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to lock session for cart merge: %w", err)
	}
	defer unlock()

	src := NewSessionStore(sess, s.sessions)
	lines, err := src.Lines(ctx)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return Merge(ctx, NewDBStore(tx, userID), src)
	})
	if err != nil {
		return fmt.Errorf("failed to merge cart: %w", err)
	}

	if err := src.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear anonymous cart: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sess.ID,
		"lines":      len(lines),
	}).Info("Merged anonymous cart into user cart")

	return nil
}

// Items returns the cart lines priced with their offers. Lines whose offer
// has disappeared from the catalog are skipped.
func (s *Service) Items(ctx context.Context, store Store) ([]Item, error) {
	lines, err := store.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []Item{}, nil
	}

	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	offers, err := s.catalog.GetSellerProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		sp, ok := offers[l.ProductID]
		if !ok {
			s.logger.WithField("product_id", l.ProductID).Warn("Cart references a missing product")
			continue
		}

		qty := decimal.NewFromInt(int64(l.Quantity))
		discounted := s.pricer.DiscountedPrice(sp)
		items = append(items, Item{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			Product:         sp,
			Price:           sp.Price,
			DiscountedPrice: discounted,
			Total:           sp.Price.Mul(qty),
			DiscountedTotal: discounted.Mul(qty),
		})
	}
	return items, nil
}

// TotalQuantity sums the quantities of the lines Items returns
func (s *Service) TotalQuantity(ctx context.Context, store Store) (int, error) {
	items, err := s.Items(ctx, store)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total, nil
}

// TotalPrice sums quantity times discounted unit price
func (s *Service) TotalPrice(ctx context.Context, store Store) (decimal.Decimal, error) {
	summary, err := s.Summary(ctx, store)
	if err != nil {
		return decimal.Zero, err
	}
	return summary.TotalDiscountedPrice, nil
}

// Summary builds the cart page: items, quantity, list and discounted totals
func (s *Service) Summary(ctx context.Context, store Store) (*Summary, error) {
	items, err := s.Items(ctx, store)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Items:                items,
		TotalPrice:           decimal.Zero,
		TotalDiscountedPrice: decimal.Zero,
	}
	for _, item := range items {
		summary.TotalQuantity += item.Quantity
		summary.TotalPrice = summary.TotalPrice.Add(item.Total)
		summary.TotalDiscountedPrice = summary.TotalDiscountedPrice.Add(item.DiscountedTotal)
	}
	return summary, nil
}
