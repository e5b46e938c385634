package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/discount"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestExpiredDiscountPricedAlikeInCatalogAndCart(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-24 * time.Hour)
	resolver := discount.NewResolverAt(func() time.Time { return now })

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.MatchExpectationsInOrder(false)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// The half-price discount ended yesterday, so 100 is the only price that
	// falls inside the 90..110 range the customer asks for.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "seller_products" .*LEFT JOIN discounts .*BETWEEN`).
		WithArgs(true, now, now, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM "seller_products" JOIN products .*ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "seller_id", "price", "quantity", "discount_id"}).
			AddRow(1, 1, 1, "100.00", 5, 1))
	mock.ExpectQuery(`FROM "discounts" WHERE "discounts"."id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "value", "is_active", "valid_from", "valid_to"}).
			AddRow(1, "percent", "50.00", true, nil, expired))
	mock.ExpectQuery(`FROM "products" WHERE "products"."id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "category_id", "is_active"}).
			AddRow(1, "Phone", "phone", 1, true))
	mock.ExpectQuery(`FROM "categories" WHERE "categories"."id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Phones"))
	mock.ExpectQuery(`FROM "sellers" WHERE "sellers"."id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Shop"))
	mock.ExpectQuery(`FROM "product_comments"`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "count"}))

	products := product.NewService(db, &config.Config{}).WithClock(resolver.Now)

	catalog := &fakeCatalog{offers: map[uint]*product.SellerProduct{
		1: {
			ID:         1,
			ProductID:  1,
			Price:      decimal.NewFromInt(100),
			Quantity:   5,
			DiscountID: uintPtr(1),
			Discount: &product.Discount{
				ID:       1,
				Kind:     product.DiscountPercent,
				Value:    decimal.NewFromInt(50),
				IsActive: true,
				ValidTo:  &expired,
			},
		},
	}}

	mr := miniredis.RunT(t)
	sessCfg := config.SessionConfig{CookieName: "session_id", TTL: time.Hour}
	sessions := session.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), sessCfg)
	carts := cart.NewService(nil, sessions, catalog, resolver, log)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Session(sessions, sessCfg, log))
	api.GET("/catalog/products", NewProductHandler(products, resolver, log).GetProducts)
	api.POST("/cart/items", NewCartHandler(carts).AddToCart)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?price=90%3B110&sort=price", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var listed struct {
		Data struct {
			Offers []struct {
				ID              uint            `json:"id"`
				DiscountedPrice decimal.Decimal `json:"discounted_price"`
			} `json:"offers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Offers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())

	c := &client{env: &testEnv{router: r}}
	code, body := c.do(t, http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": 1})
	require.Equal(t, http.StatusOK, code)
	items := data(t, body)["items"].([]interface{})
	require.Len(t, items, 1)
	inCart := decimal.RequireFromString(items[0].(map[string]interface{})["discounted_price"].(string))

	assert.True(t, listed.Data.Offers[0].DiscountedPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, inCart.Equal(listed.Data.Offers[0].DiscountedPrice),
		"cart charges %s, catalog shows %s", inCart, listed.Data.Offers[0].DiscountedPrice)
}

func uintPtr(v uint) *uint { return &v }
