// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// Accounts
		&user.User{},

		// Catalog
		&product.Category{},
		&product.Seller{},
		&product.Discount{},
		&product.Tag{},
		&product.Specification{},
		&product.Product{},
		&product.ProductSpecification{},
		&product.SellerProduct{},
		&product.ProductComment{},
		&product.ViewedProduct{},

		// Cart
		&cart.CartItem{},

		// Orders
		&order.Order{},
		&order.OrderProduct{},
		&order.Payment{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// Indexes are created after auto-migration. The partial unique index on
// drafts is what keeps a customer down to a single open order.
var Indexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_draft ON orders(user_id) WHERE in_order = false",
	"CREATE INDEX IF NOT EXISTS idx_orders_user_placed ON orders(user_id, placed_at DESC) WHERE in_order = true",

	"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

	"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
	"CREATE INDEX IF NOT EXISTS idx_categories_parent_active ON categories(parent_id, is_active)",
	"CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order)",

	"CREATE INDEX IF NOT EXISTS idx_seller_products_discount ON seller_products(discount_id, price)",
	"CREATE INDEX IF NOT EXISTS idx_seller_products_in_stock ON seller_products(quantity) WHERE quantity > 0",

	"CREATE INDEX IF NOT EXISTS idx_product_comments_product_created ON product_comments(product_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_viewed_products_user_viewed ON viewed_products(user_id, viewed_at DESC)",

	"CREATE INDEX IF NOT EXISTS idx_payments_order_created ON payments(order_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",
}

// CreateIndexes creates additional indexes. The draft index is required,
// the rest are logged and skipped on failure.
func (m *Migration) CreateIndexes() error {
	m.logger.Info("Creating additional database indexes")

	failed := 0
	for i, stmt := range Indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			if i == 0 {
				return fmt.Errorf("failed to create draft order index: %w", err)
			}
			failed++
			m.logger.WithError(err).WithField("statement", stmt).Warn("Failed to create index")
		}
	}

	m.logger.WithFields(logrus.Fields{
		"created": len(Indexes) - failed,
		"failed":  failed,
	}).Info("Database indexes created")
	return nil
}

// SeedInitialData inserts a small demo catalog and a test customer
func (m *Migration) SeedInitialData(passwords *auth.PasswordManager) error {
	m.logger.Info("Seeding initial data")

	return m.db.Transaction(func(tx *gorm.DB) error {
		categories, err := seedCategories(tx)
		if err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}

		sellers, err := seedSellers(tx)
		if err != nil {
			return fmt.Errorf("failed to seed sellers: %w", err)
		}

		if err := seedProducts(tx, categories, sellers); err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}

		if err := seedTestUser(tx, passwords); err != nil {
			return fmt.Errorf("failed to seed test user: %w", err)
		}

		m.logger.Info("Initial data seeded")
		return nil
	})
}

func firstOrCreate[T any](tx *gorm.DB, row *T, where string, args ...interface{}) error {
	err := tx.Where(where, args...).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(row).Error
	}
	return err
}

func seedCategories(tx *gorm.DB) (map[string]*product.Category, error) {
	roots := []product.Category{
		{Name: "Electronics", Slug: "electronics", SortOrder: 1, IsActive: true},
		{Name: "Home", Slug: "home", SortOrder: 2, IsActive: true},
	}
	children := map[string][]product.Category{
		"electronics": {
			{Name: "Phones", Slug: "phones", SortOrder: 1, IsActive: true},
			{Name: "Laptops", Slug: "laptops", SortOrder: 2, IsActive: true},
		},
		"home": {
			{Name: "Kitchen", Slug: "kitchen", SortOrder: 1, IsActive: true},
		},
	}

	bySlug := make(map[string]*product.Category)
	for i := range roots {
		root := roots[i]
		if err := firstOrCreate(tx, &root, "slug = ?", root.Slug); err != nil {
			return nil, err
		}
		bySlug[root.Slug] = &root

		for j := range children[root.Slug] {
			child := children[root.Slug][j]
			child.ParentID = &root.ID
			if err := firstOrCreate(tx, &child, "slug = ?", child.Slug); err != nil {
				return nil, err
			}
			bySlug[child.Slug] = &child
		}
	}
	return bySlug, nil
}

func seedSellers(tx *gorm.DB) (map[string]*product.Seller, error) {
	sellers := []product.Seller{
		{Name: "Megamarket", Email: "shop@megamarket.test", Phone: "+70000000001", Address: "Moscow, Tverskaya 1"},
		{Name: "Technopark", Email: "sales@technopark.test", Phone: "+70000000002", Address: "Kazan, Baumana 12"},
	}

	byName := make(map[string]*product.Seller)
	for i := range sellers {
		seller := sellers[i]
		if err := firstOrCreate(tx, &seller, "name = ?", seller.Name); err != nil {
			return nil, err
		}
		byName[seller.Name] = &seller
	}
	return byName, nil
}

type seedOffer struct {
	seller   string
	price    string
	quantity int
	discount *product.Discount
}

type seedProduct struct {
	name     string
	slug     string
	category string
	rating   float64
	specs    map[string]string
	tags     []string
	offers   []seedOffer
}

func seedProducts(tx *gorm.DB, categories map[string]*product.Category, sellers map[string]*product.Seller) error {
	spring := &product.Discount{
		Name:     "Spring sale",
		Kind:     product.DiscountPercent,
		Value:    decimal.NewFromInt(10),
		IsActive: true,
	}
	if err := firstOrCreate(tx, spring, "name = ?", spring.Name); err != nil {
		return err
	}

	products := []seedProduct{
		{
			name: "Phone X", slug: "phone-x", category: "phones", rating: 4.6,
			specs: map[string]string{"color": "black", "memory": "128 GB"},
			tags:  []string{"new"},
			offers: []seedOffer{
				{seller: "Megamarket", price: "49990.00", quantity: 12, discount: spring},
				{seller: "Technopark", price: "51990.00", quantity: 3},
			},
		},
		{
			name: "Phone Y", slug: "phone-y", category: "phones", rating: 4.1,
			specs: map[string]string{"color": "white", "memory": "64 GB"},
			offers: []seedOffer{
				{seller: "Technopark", price: "29990.00", quantity: 0},
			},
		},
		{
			name: "Laptop Pro", slug: "laptop-pro", category: "laptops", rating: 4.8,
			specs: map[string]string{"color": "silver", "memory": "16 GB", "screen": "14\""},
			tags:  []string{"new", "pro"},
			offers: []seedOffer{
				{seller: "Megamarket", price: "129990.00", quantity: 5, discount: spring},
			},
		},
		{
			name: "Kettle", slug: "kettle", category: "kitchen", rating: 3.9,
			specs: map[string]string{"color": "black", "volume": "1.7 L"},
			offers: []seedOffer{
				{seller: "Megamarket", price: "2490.00", quantity: 40},
			},
		},
	}

	for _, sp := range products {
		p := product.Product{
			Name:       sp.name,
			Slug:       sp.slug,
			Rating:     sp.rating,
			CategoryID: categories[sp.category].ID,
			IsActive:   true,
		}
		if err := firstOrCreate(tx, &p, "slug = ?", p.Slug); err != nil {
			return err
		}

		for _, name := range sp.tags {
			tag := product.Tag{Name: name}
			if err := firstOrCreate(tx, &tag, "name = ?", name); err != nil {
				return err
			}
			if err := tx.Model(&p).Association("Tags").Append(&tag); err != nil {
				return err
			}
		}

		for name, value := range sp.specs {
			spec := product.Specification{Name: name}
			if err := firstOrCreate(tx, &spec, "name = ?", name); err != nil {
				return err
			}
			ps := product.ProductSpecification{ProductID: p.ID, SpecificationID: spec.ID, Value: value}
			if err := firstOrCreate(tx, &ps, "product_id = ? AND specification_id = ?", p.ID, spec.ID); err != nil {
				return err
			}
		}

		for _, so := range sp.offers {
			offer := product.SellerProduct{
				ProductID: p.ID,
				SellerID:  sellers[so.seller].ID,
				Price:     decimal.RequireFromString(so.price),
				Quantity:  so.quantity,
			}
			if so.discount != nil {
				offer.DiscountID = &so.discount.ID
			}

			err := firstOrCreate(tx, &offer, "product_id = ? AND seller_id = ?", offer.ProductID, offer.SellerID)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func seedTestUser(tx *gorm.DB, passwords *auth.PasswordManager) error {
	var count int64
	if err := tx.Model(&user.User{}).Where("email = ?", "customer@example.com").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := passwords.HashPassword("Customer#2024x")
	if err != nil {
		return err
	}

	return tx.Create(&user.User{
		Email:     "customer@example.com",
		Password:  hashed,
		FirstName: "Test",
		LastName:  "Customer",
		Phone:     "+79990000000",
		City:      "Moscow",
		Address:   "Arbat 10",
		IsActive:  true,
	}).Error
}

// GetTableInfo logs the row count of every public table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			m.logger.WithError(err).WithField("table", table).Warn("Failed to count table")
			continue
		}
		m.logger.WithFields(logrus.Fields{
			"table":   table,
			"records": count,
		}).Debug("Table info")
	}
	return nil
}
