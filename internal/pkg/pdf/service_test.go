package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/order"
)

func TestRenderInvoice(t *testing.T) {
	svc := NewService(&config.Config{Company: config.CompanyConfig{Name: "Storefront LLC", Email: "billing@example.com"}})
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }

	placedAt := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	tx := "txn_42"
	o := &order.Order{
		ID:                 42,
		FIO:                "Ivan Petrov",
		Email:              "ivan@example.com",
		Delivery:           order.DeliveryExpress,
		City:               "Moscow",
		Address:            "Tverskaya 1",
		PaymentMethod:      order.PaymentCard,
		InOrder:            true,
		Paid:               true,
		TransactionID:      &tx,
		TotalSum:           decimal.NewFromInt(180),
		TotalDiscountedSum: decimal.NewFromInt(160),
		CreatedAt:          placedAt,
		PlacedAt:           &placedAt,
		Products: []order.OrderProduct{
			{Name: "Phone", SellerName: "Acme", Quantity: 1, Price: decimal.NewFromInt(100), DiscountedPrice: decimal.NewFromInt(100)},
			{Name: "Case", SellerName: "Acme", Quantity: 2, Price: decimal.NewFromInt(40), DiscountedPrice: decimal.NewFromInt(30)},
		},
	}

	html, err := svc.RenderHTML(o)
	require.NoError(t, err)

	assert.Contains(t, html, "INV-ORD-20240309-00042")
	assert.Contains(t, html, "March 10, 2024")
	assert.Contains(t, html, "Storefront LLC")
	assert.Contains(t, html, "status-paid")
	assert.Contains(t, html, "60.00")
	assert.Contains(t, html, "-20.00")
	assert.Contains(t, html, "160.00")
	assert.Contains(t, html, "Card (txn_42)")
	assert.Contains(t, html, "Express, Moscow, Tverskaya 1")
}

func TestDraftIsNotInvoiceable(t *testing.T) {
	svc := NewService(&config.Config{})

	_, err := svc.RenderHTML(&order.Order{ID: 1})
	assert.ErrorIs(t, err, ErrNotInvoiceable)
}
