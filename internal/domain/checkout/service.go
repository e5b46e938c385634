// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrEmptyCart is returned when placing an order with nothing in the cart
	ErrEmptyCart = errors.New("cart is empty")
	// ErrStepIncomplete is returned when a step is entered before the one it builds on
	ErrStepIncomplete = errors.New("previous checkout step not completed")
)

// IncompleteError names the step the customer has to finish first
type IncompleteError struct {
	Missing Step
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: %s", ErrStepIncomplete, e.Missing)
}

func (e *IncompleteError) Unwrap() error { return ErrStepIncomplete }

// requireCompleted checks the draft carries the output of every step before next
func requireCompleted(draft *order.Order, next Step) error {
	if draft.FIO == "" || draft.Email == "" || draft.Phone == "" {
		return &IncompleteError{Missing: StepOne}
	}
	if next == StepThree && (draft.Delivery == "" || draft.City == "" || draft.Address == "") {
		return &IncompleteError{Missing: StepTwo}
	}
	return nil
}

const (
	DefaultDelivery      = order.DeliveryExpress
	DefaultPaymentMethod = order.PaymentCard
)

// Orders is the order repository the checkout drives
type Orders interface {
	GetOrCreateDraft(ctx context.Context, userID uint) (*order.Order, error)
	FindDraft(ctx context.Context, userID uint) (*order.Order, error)
	UpdateContact(ctx context.Context, orderID uint, c order.Contact) error
	UpdateShipping(ctx context.Context, orderID uint, sh order.Shipping) error
	Place(ctx context.Context, orderID uint, p order.Placement, afterPlace func(tx *gorm.DB) error) (*order.Order, error)
	LastPlaced(ctx context.Context, userID uint) (*order.Order, error)
}

// Users looks up the profile used to prefill the forms
type Users interface {
	GetProfile(ctx context.Context, userID uint) (*user.User, error)
}

// Cart prices the lines being checked out
type Cart interface {
	Summary(ctx context.Context, store cart.Store) (*cart.Summary, error)
}

// Notifier is told about placed orders
type Notifier interface {
	OrderPlaced(o *order.Order)
}

// Initial holds the values a step form starts with
type Initial struct {
	FIO           string `json:"fio"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Delivery      string `json:"delivery"`
	City          string `json:"city"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
}

// Service runs the multi step checkout
type Service struct {
	orders   Orders
	users    Users
	cart     Cart
	notifier Notifier
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewService creates a new checkout service. notifier may be nil.
func NewService(orders Orders, users Users, cartService Cart, notifier Notifier, logger *logrus.Logger) *Service {
	return &Service{
		orders:   orders,
		users:    users,
		cart:     cartService,
		notifier: notifier,
		validate: newValidator(),
		logger:   logger,
	}
}

// StepOneInitial prefills the contact form. Anonymous visitors only get
// the defaults.
func (s *Service) StepOneInitial(ctx context.Context, userID *uint) (*Initial, error) {
	if userID == nil {
		return defaults(), nil
	}

	draft, err := s.orders.FindDraft(ctx, *userID)
	if err != nil && !errors.Is(err, order.ErrDraftNotFound) {
		return nil, err
	}
	return s.initial(ctx, *userID, draft)
}

// StepTwoInitial prefills the delivery form
func (s *Service) StepTwoInitial(ctx context.Context, userID uint) (*Initial, error) {
	return s.initialFor(ctx, userID, StepTwo)
}

// StepThreeInitial prefills the payment form
func (s *Service) StepThreeInitial(ctx context.Context, userID uint) (*Initial, error) {
	return s.initialFor(ctx, userID, StepThree)
}

func (s *Service) initialFor(ctx context.Context, userID uint, step Step) (*Initial, error) {
	draft, err := s.draftFor(ctx, userID, step)
	if err != nil {
		return nil, err
	}
	return s.initial(ctx, userID, draft)
}

// draftFor loads the draft and checks the steps before step are done
func (s *Service) draftFor(ctx context.Context, userID uint, step Step) (*order.Order, error) {
	draft, err := s.orders.FindDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireCompleted(draft, step); err != nil {
		return nil, err
	}
	return draft, nil
}

// initial layers draft values over the profile over the defaults
func (s *Service) initial(ctx context.Context, userID uint, draft *order.Order) (*Initial, error) {
	in := defaults()

	u, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	overlay(&in.FIO, u.GetFullName())
	overlay(&in.Email, u.Email)
	overlay(&in.Phone, u.Phone)
	overlay(&in.City, u.City)
	overlay(&in.Address, u.Address)

	if draft != nil {
		overlay(&in.FIO, draft.FIO)
		overlay(&in.Email, draft.Email)
		overlay(&in.Phone, draft.Phone)
		overlay(&in.Delivery, string(draft.Delivery))
		overlay(&in.City, draft.City)
		overlay(&in.Address, draft.Address)
		overlay(&in.PaymentMethod, string(draft.PaymentMethod))
	}
	return in, nil
}

func defaults() *Initial {
	return &Initial{
		Delivery:      string(DefaultDelivery),
		PaymentMethod: string(DefaultPaymentMethod),
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// StepOne stores the contact details on the user's draft, creating the
// draft on first use. Invalid input changes nothing.
func (s *Service) StepOne(ctx context.Context, userID uint, form StepOneForm) (*order.Order, error) {
	if err := validate(s.validate, StepOne, &form); err != nil {
		return nil, err
	}

	draft, err := s.orders.GetOrCreateDraft(ctx, userID)
	if err != nil {
		return nil, err
	}

	contact := order.Contact{
		FIO:   form.FIO,
		Email: form.Email,
		Phone: user.NormalizePhone(form.Phone),
	}
	if err := s.orders.UpdateContact(ctx, draft.ID, contact); err != nil {
		return nil, err
	}

	draft.FIO, draft.Email, draft.Phone = contact.FIO, contact.Email, contact.Phone
	return draft, nil
}

// StepTwo stores the delivery details on the draft
func (s *Service) StepTwo(ctx context.Context, userID uint, form StepTwoForm) (*order.Order, error) {
	draft, err := s.draftFor(ctx, userID, StepTwo)
	if err != nil {
		return nil, err
	}

	if err := validate(s.validate, StepTwo, &form); err != nil {
		return nil, err
	}

	shipping := order.Shipping{
		Delivery: order.DeliveryMethod(form.Delivery),
		City:     form.City,
		Address:  form.Address,
	}
	if err := s.orders.UpdateShipping(ctx, draft.ID, shipping); err != nil {
		return nil, err
	}

	draft.Delivery, draft.City, draft.Address = shipping.Delivery, shipping.City, shipping.Address
	return draft, nil
}

// StepThree places the order: the cart lines are frozen into the order,
// the order is flagged placed exactly once and the cart is emptied in the
// same transaction.
func (s *Service) StepThree(ctx context.Context, userID uint, store cart.Store, form StepThreeForm) (*order.Order, error) {
	draft, err := s.draftFor(ctx, userID, StepThree)
	if err != nil {
		return nil, err
	}

	if err := validate(s.validate, StepThree, &form); err != nil {
		return nil, err
	}

	summary, err := s.cart.Summary(ctx, store)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, ErrEmptyCart
	}

	placement := order.Placement{
		PaymentMethod:      order.PaymentMethod(form.PaymentMethod),
		Products:           snapshot(summary.Items),
		TotalSum:           summary.TotalPrice,
		TotalDiscountedSum: summary.TotalDiscountedPrice,
	}

	placed, err := s.orders.Place(ctx, draft.ID, placement, func(tx *gorm.DB) error {
		return cart.NewDBStore(tx, userID).Clear(ctx)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": placed.ID,
		"user_id":  userID,
		"total":    placed.TotalDiscountedSum.StringFixed(2),
	}).Info("Order placed")

	if s.notifier != nil {
		s.notifier.OrderPlaced(placed)
	}
	return placed, nil
}

// StepFour returns the latest placed order
func (s *Service) StepFour(ctx context.Context, userID uint) (*order.Order, error) {
	return s.orders.LastPlaced(ctx, userID)
}

func snapshot(items []cart.Item) []order.OrderProduct {
	products := make([]order.OrderProduct, 0, len(items))
	for _, item := range items {
		op := order.OrderProduct{
			SellerProductID: item.ProductID,
			Quantity:        item.Quantity,
			Price:           item.Price.Round(2),
			DiscountedPrice: item.DiscountedPrice.Round(2),
		}
		if item.Product != nil {
			op.Name = item.Product.Product.Name
			op.SellerName = item.Product.Seller.Name
		}
		products = append(products, op)
	}
	return products
}

