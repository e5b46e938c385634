// internal/domain/compare/service.go
package compare

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
)

// SessionKey is where the comparison list lives inside a session
const SessionKey = "compared"

// Catalog looks up the offers being compared
type Catalog interface {
	GetSellerProduct(ctx context.Context, id uint) (*product.SellerProduct, error)
}

// Pricer returns the effective unit price of an offer
type Pricer interface {
	DiscountedPrice(sp *product.SellerProduct) decimal.Decimal
}

// SessionSaver writes a session back to its backing store
type SessionSaver interface {
	Save(ctx context.Context, sess *session.Session) error
}

// Service keeps the per session comparison list
type Service struct {
	catalog     Catalog
	pricer      Pricer
	sessions    SessionSaver
	capacity    int
	placeholder string
}

// NewService creates a new compare service
func NewService(catalog Catalog, pricer Pricer, sessions SessionSaver, cfg config.CompareConfig) *Service {
	return &Service{
		catalog:     catalog,
		pricer:      pricer,
		sessions:    sessions,
		capacity:    cfg.Capacity,
		placeholder: cfg.Placeholder,
	}
}

// List reads the comparison list from the session
func (s *Service) List(sess *session.Session) (*List, error) {
	list := NewList(s.capacity)
	if _, err := sess.Get(SessionKey, list); err != nil {
		return nil, fmt.Errorf("failed to read comparison list: %w", err)
	}
	return list, nil
}

// Add snapshots an offer into the list
func (s *Service) Add(ctx context.Context, sess *session.Session, productID uint) (*List, error) {
	sp, err := s.catalog.GetSellerProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	list, err := s.List(sess)
	if err != nil {
		return nil, err
	}
	list.Add(s.snapshot(sp))

	if err := s.save(ctx, sess, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Remove drops a product by name
func (s *Service) Remove(ctx context.Context, sess *session.Session, name string) (*List, error) {
	list, err := s.List(sess)
	if err != nil {
		return nil, err
	}
	if !list.Remove(name) {
		return list, nil
	}

	if err := s.save(ctx, sess, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Table builds the comparison view
func (s *Service) Table(sess *session.Session) (Table, error) {
	list, err := s.List(sess)
	if err != nil {
		return Table{}, err
	}
	return BuildTable(list.All(), s.placeholder), nil
}

func (s *Service) save(ctx context.Context, sess *session.Session, list *List) error {
	if list.Count() == 0 {
		sess.Delete(SessionKey)
	} else if err := sess.Set(SessionKey, list); err != nil {
		return err
	}
	return s.sessions.Save(ctx, sess)
}

func (s *Service) snapshot(sp *product.SellerProduct) Entry {
	specs := make(Specs, 0, len(sp.Product.Specifications))
	for _, ps := range sp.Product.Specifications {
		specs = append(specs, Spec{Name: ps.Specification.Name, Value: ps.Value})
	}

	return Entry{
		Name:            sp.Product.Name,
		Price:           sp.Price,
		DiscountedPrice: s.pricer.DiscountedPrice(sp),
		Rating:          sp.Product.Rating,
		Specifications:  specs,
		Image:           sp.Product.Image,
		ProductID:       sp.ID,
	}
}
