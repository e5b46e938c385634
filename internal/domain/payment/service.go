// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/order"
)

var (
	ErrMethodMismatch = errors.New("order uses a different payment method")
	ErrMissingNonce   = errors.New("payment method nonce is required")
)

const gatewayName = "card-gateway"

// Outcome is where a payment attempt sends the customer
type Outcome string

const (
	OutcomeDone     Outcome = "done"
	OutcomeCanceled Outcome = "canceled"
)

// Orders is the part of the order repository payments touch
type Orders interface {
	GetForUser(ctx context.Context, id, userID uint) (*order.Order, error)
	MarkPaid(ctx context.Context, orderID uint, transactionID string) error
	RecordPayment(ctx context.Context, p *order.Payment) error
}

// Locker serialises charges of the same order across instances
type Locker interface {
	LockFor(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// Notifier is told about payment outcomes
type Notifier interface {
	PaymentSucceeded(o *order.Order)
	PaymentFailed(o *order.Order, reason string)
}

// Page is what the payment form needs to render
type Page struct {
	OrderID     uint                `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	Method      order.PaymentMethod `json:"method"`
	Amount      string              `json:"amount"`
	ClientToken string              `json:"client_token"`
}

// Result reports one payment attempt
type Result struct {
	Outcome       Outcome `json:"outcome"`
	OrderID       uint    `json:"order_id"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// Service charges placed orders through the gateway
type Service struct {
	orders   Orders
	gateway  Gateway
	notifier Notifier
	locker   Locker
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewService creates a new payment service. notifier may be nil.
func NewService(orders Orders, gateway Gateway, notifier Notifier, timeout time.Duration, logger *logrus.Logger) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// WithLocker makes concurrent attempts on one order wait for each other, so
// the second one sees the order paid instead of charging it again.
func (s *Service) WithLocker(l Locker) *Service {
	s.locker = l
	return s
}

// lock holds the order for longer than a charge and its bookkeeping can take
func (s *Service) lock(ctx context.Context, orderID uint) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.locker.LockFor(waitCtx, "order:"+strconv.FormatUint(uint64(orderID), 10), 2*s.timeout)
}

// payable loads an order the user may pay now
func (s *Service) payable(ctx context.Context, orderID, userID uint) (*order.Order, error) {
	o, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !o.InOrder {
		return nil, order.ErrNotPlaced
	}
	if o.Paid {
		return nil, order.ErrAlreadyPaid
	}
	return o, nil
}

// Route tells which payment flow the order uses
func (s *Service) Route(ctx context.Context, orderID, userID uint) (order.PaymentMethod, error) {
	o, err := s.payable(ctx, orderID, userID)
	if err != nil {
		return "", err
	}
	return o.PaymentMethod, nil
}

// Page prepares the payment form for the order's method
func (s *Service) Page(ctx context.Context, orderID, userID uint, method order.PaymentMethod) (*Page, error) {
	o, err := s.payable(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != method {
		return nil, ErrMethodMismatch
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := s.gateway.GenerateClientToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate client token: %w", err)
	}

	return &Page{
		OrderID:     o.ID,
		OrderNumber: o.Number(),
		Method:      o.PaymentMethod,
		Amount:      o.ChargeAmount(),
		ClientToken: token,
	}, nil
}

// PayWithCard charges the order with the nonce produced by the card form
func (s *Service) PayWithCard(ctx context.Context, orderID, userID uint, nonce string) (*Result, error) {
	return s.pay(ctx, orderID, userID, order.PaymentCard, nonce)
}

// PayWithAccount charges the order using the account number as the nonce
func (s *Service) PayWithAccount(ctx context.Context, orderID, userID uint, account string) (*Result, error) {
	return s.pay(ctx, orderID, userID, order.PaymentAccount, account)
}

func (s *Service) pay(ctx context.Context, orderID, userID uint, method order.PaymentMethod, nonce string) (*Result, error) {
	nonce = strings.TrimSpace(nonce)
	if nonce == "" {
		return nil, ErrMissingNonce
	}

	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.payable(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != method {
		return nil, ErrMethodMismatch
	}

	log := s.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"method":   method,
		"amount":   o.ChargeAmount(),
	})

	chargeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	res, err := s.gateway.Charge(chargeCtx, ChargeRequest{
		Amount:  o.ChargeAmount(),
		Nonce:   nonce,
		Options: ChargeOptions{SubmitForSettlement: true},
	})
	cancel()

	if err != nil || !res.Success {
		reason := "payment declined"
		switch {
		case err != nil:
			reason = err.Error()
		case res.Message != "":
			reason = res.Message
		}
		log.WithField("reason", reason).Warn("Payment canceled")
		return s.canceled(ctx, o, method, reason), nil
	}

	if err := s.orders.MarkPaid(ctx, o.ID, res.TransactionID); err != nil {
		return nil, err
	}
	s.record(ctx, o, method, order.PaymentStatusSucceeded, res.TransactionID, res.Message)

	txID := res.TransactionID
	now := time.Now()
	o.Paid, o.TransactionID, o.PaidAt = true, &txID, &now

	log.WithField("transaction_id", txID).Info("Payment succeeded")
	if s.notifier != nil {
		s.notifier.PaymentSucceeded(o)
	}

	return &Result{Outcome: OutcomeDone, OrderID: o.ID, TransactionID: txID}, nil
}

// canceled records the failed attempt; the order stays unpaid
func (s *Service) canceled(ctx context.Context, o *order.Order, method order.PaymentMethod, reason string) *Result {
	s.record(ctx, o, method, order.PaymentStatusFailed, "", reason)
	if s.notifier != nil {
		s.notifier.PaymentFailed(o, reason)
	}
	return &Result{Outcome: OutcomeCanceled, OrderID: o.ID, Message: reason}
}

func (s *Service) record(ctx context.Context, o *order.Order, method order.PaymentMethod, status order.PaymentStatus, txID, message string) {
	p := &order.Payment{
		OrderID:       o.ID,
		Method:        method,
		Gateway:       gatewayName,
		TransactionID: txID,
		Amount:        o.TotalDiscountedSum,
		Status:        status,
		Message:       message,
	}
	if err := s.orders.RecordPayment(ctx, p); err != nil {
		s.logger.WithField("order_id", o.ID).WithError(err).Error("Failed to record payment attempt")
	}
}
