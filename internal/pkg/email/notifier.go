// internal/pkg/email/notifier.go
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/order"
)

const notifyTimeout = 30 * time.Second

// Notifier sends order emails in the background. Delivery errors are
// logged and never reach the request that triggered them.
type Notifier struct {
	service *EmailService
	logger  *logrus.Logger
	async   bool
}

// NewNotifier creates a notifier that sends asynchronously
func NewNotifier(service *EmailService, logger *logrus.Logger) *Notifier {
	return &Notifier{service: service, logger: logger, async: true}
}

// OrderPlaced mails the order confirmation
func (n *Notifier) OrderPlaced(o *order.Order) {
	data := OrderConfirmationData{
		EmailTemplateData: EmailTemplateData{UserName: o.FIO, UserEmail: o.Email},
		OrderNumber:       o.Number(),
		OrderDate:         formatDate(o.PlacedAt, o.CreatedAt),
		OrderTotal:        o.ChargeAmount(),
		OrderURL:          n.orderURL(o),
		Delivery:          string(o.Delivery),
		City:              o.City,
		Address:           o.Address,
		PaymentMethod:     string(o.PaymentMethod),
	}
	for _, p := range o.Products {
		data.Items = append(data.Items, OrderItem{
			Name:     p.Name,
			Seller:   p.SellerName,
			Quantity: p.Quantity,
			Price:    p.DiscountedPrice.StringFixed(2),
		})
	}

	n.run(o, "order_confirmation", func(ctx context.Context) error {
		return n.service.SendOrderConfirmationEmail(ctx, data)
	})
}

// PaymentSucceeded mails the payment receipt
func (n *Notifier) PaymentSucceeded(o *order.Order) {
	data := n.paymentData(o)
	if o.TransactionID != nil {
		data.TransactionID = *o.TransactionID
	}
	data.Date = formatDate(o.PaidAt, time.Now())

	n.run(o, "payment_success", func(ctx context.Context) error {
		return n.service.SendPaymentSuccessEmail(ctx, data)
	})
}

// PaymentFailed tells the customer the charge did not go through
func (n *Notifier) PaymentFailed(o *order.Order, reason string) {
	data := n.paymentData(o)
	data.Reason = reason
	data.Date = time.Now().Format("January 2, 2006")

	n.run(o, "payment_failed", func(ctx context.Context) error {
		return n.service.SendPaymentFailedEmail(ctx, data)
	})
}

func (n *Notifier) paymentData(o *order.Order) PaymentNotificationData {
	return PaymentNotificationData{
		EmailTemplateData: EmailTemplateData{UserName: o.FIO, UserEmail: o.Email},
		OrderNumber:       o.Number(),
		Amount:            o.ChargeAmount(),
		PaymentMethod:     string(o.PaymentMethod),
		OrderURL:          n.orderURL(o),
	}
}

func (n *Notifier) orderURL(o *order.Order) string {
	return fmt.Sprintf("%s/orders/%d", n.service.config.App.BaseURL, o.ID)
}

func (n *Notifier) run(o *order.Order, kind string, send func(ctx context.Context) error) {
	if o.Email == "" {
		return
	}

	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			n.logger.WithFields(logrus.Fields{
				"order_id": o.ID,
				"email":    kind,
			}).WithError(err).Error("Failed to send order email")
		}
	}

	if n.async {
		go job()
		return
	}
	job()
}

func formatDate(t *time.Time, fallback time.Time) string {
	if t != nil {
		return t.Format("January 2, 2006")
	}
	return fallback.Format("January 2, 2006")
}
