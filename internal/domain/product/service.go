// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSellerNotFound  = errors.New("seller not found")
)

// Service handles catalog lookups for the storefront
type Service struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// WithClock sets the time discounts are evaluated at when filtering and
// sorting by price. Pair it with the clock of the resolver that prices
// carts and orders.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Offer is a seller product along with its review count
type Offer struct {
	SellerProduct
	CommentsCount int64 `json:"comments_count"`
}

// ListResponse represents a catalog page with pagination
type ListResponse struct {
	Offers     []Offer    `json:"offers"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes page metadata
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ProductDetail is a product card with every seller offering it
type ProductDetail struct {
	Product Product         `json:"product"`
	Offers  []SellerProduct `json:"offers"`
}

// CategoryTree represents hierarchical category structure
type CategoryTree struct {
	Category
	Children []CategoryTree `json:"children,omitempty"`
}

func (s *Service) offers(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&SellerProduct{}).
		Joins("JOIN products ON products.id = seller_products.product_id").
		Joins("JOIN sellers ON sellers.id = seller_products.seller_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins(joinDiscounts).
		Where("products.is_active = ?", true)
}

// List retrieves seller offers for a catalog query with filtering and pagination
func (s *Service) List(ctx context.Context, q Query, req *FilterRequest) (*ListResponse, error) {
	if req == nil {
		req = &FilterRequest{}
	}
	req.normalize()

	scope, err := scopeFor(q)
	if err != nil {
		return nil, err
	}

	now := s.now()
	query, err := req.apply(s.offers(ctx).Scopes(scope), now)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}

	var items []SellerProduct
	offset := (req.Page - 1) * req.Limit
	if err := query.
		Preload("Product.Category").
		Preload("Seller").
		Preload("Discount").
		Clauses(req.orderBy(now)).
		Offset(offset).
		Limit(req.Limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve offers: %w", err)
	}

	counts, err := s.commentCounts(ctx, items)
	if err != nil {
		return nil, err
	}

	offers := make([]Offer, 0, len(items))
	for _, item := range items {
		offers = append(offers, Offer{SellerProduct: item, CommentsCount: counts[item.ProductID]})
	}

	return &ListResponse{
		Offers:     offers,
		Pagination: NewPagination(req.Page, req.Limit, total),
	}, nil
}

func (s *Service) commentCounts(ctx context.Context, items []SellerProduct) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	if len(items) == 0 {
		return counts, nil
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var rows []struct {
		ProductID uint
		Count     int64
	}
	if err := s.db.WithContext(ctx).
		Model(&ProductComment{}).
		Select("product_id, COUNT(*) AS count").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	for _, r := range rows {
		counts[r.ProductID] = r.Count
	}
	return counts, nil
}

// GetSellerProduct loads one offer with everything needed to price and compare it
func (s *Service) GetSellerProduct(ctx context.Context, id uint) (*SellerProduct, error) {
	var sp SellerProduct
	err := s.db.WithContext(ctx).
		Preload("Product.Specifications.Specification").
		Preload("Seller").
		Preload("Discount").
		First(&sp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve seller product: %w", err)
	}
	return &sp, nil
}

// GetSellerProducts loads many offers keyed by id; missing ids are skipped
func (s *Service) GetSellerProducts(ctx context.Context, ids []uint) (map[uint]*SellerProduct, error) {
	result := make(map[uint]*SellerProduct, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var items []SellerProduct
	if err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Seller").
		Preload("Discount").
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve seller products: %w", err)
	}

	for i := range items {
		result[items[i].ID] = &items[i]
	}
	return result, nil
}

// GetProductBySlug retrieves a product card and its offers
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	var p Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Preload("Specifications.Specification").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	var offers []SellerProduct
	if err := s.db.WithContext(ctx).
		Model(&SellerProduct{}).
		Joins(joinDiscounts).
		Preload("Seller").
		Preload("Discount").
		Where("seller_products.product_id = ?", p.ID).
		Clauses(clause.OrderBy{Expression: discountedPrice(s.now())}).
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve offers: %w", err)
	}

	return &ProductDetail{Product: p, Offers: offers}, nil
}

// AddComment stores a customer review on a product card
func (s *Service) AddComment(ctx context.Context, productID uint, userID *uint, author, content string) (*ProductComment, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return nil, ErrProductNotFound
	}

	comment := ProductComment{
		ProductID: productID,
		UserID:    userID,
		Author:    author,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &comment, nil
}

// RecordView marks a product as viewed by the user, refreshing the timestamp
func (s *Service) RecordView(ctx context.Context, userID, productID uint) error {
	view := ViewedProduct{UserID: userID, ProductID: productID, ViewedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
	}).Create(&view).Error
	if err != nil {
		return fmt.Errorf("failed to record viewed product: %w", err)
	}
	return nil
}

// RecentlyViewed returns the user's last viewed products, newest first
func (s *Service) RecentlyViewed(ctx context.Context, userID uint, limit int) ([]Product, error) {
	var views []ViewedProduct
	if err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve viewed products: %w", err)
	}

	products := make([]Product, 0, len(views))
	for _, v := range views {
		products = append(products, v.Product)
	}
	return products, nil
}

// Sellers lists every shop
func (s *Service) Sellers(ctx context.Context) ([]Seller, error) {
	var sellers []Seller
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&sellers).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve sellers: %w", err)
	}
	return sellers, nil
}

// GetSeller retrieves a shop by id
func (s *Service) GetSeller(ctx context.Context, id uint) (*Seller, error) {
	var seller Seller
	if err := s.db.WithContext(ctx).First(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("failed to retrieve seller: %w", err)
	}
	return &seller, nil
}

// Tags lists every tag
func (s *Service) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tags: %w", err)
	}
	return tags, nil
}

// Categories lists active categories in menu order
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// CategoryTree retrieves categories in hierarchical tree structure
func (s *Service) CategoryTree(ctx context.Context) ([]CategoryTree, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(categories), nil
}

// BuildCategoryTree nests categories under their parents, keeping input order.
// Categories whose parent is missing are dropped.
func BuildCategoryTree(categories []Category) []CategoryTree {
	children := make(map[uint][]Category)
	known := make(map[uint]bool, len(categories))
	var roots []Category

	for _, cat := range categories {
		known[cat.ID] = true
	}
	for _, cat := range categories {
		switch {
		case cat.ParentID == nil:
			roots = append(roots, cat)
		case known[*cat.ParentID]:
			children[*cat.ParentID] = append(children[*cat.ParentID], cat)
		}
	}

	var build func(cats []Category) []CategoryTree
	build = func(cats []Category) []CategoryTree {
		nodes := make([]CategoryTree, 0, len(cats))
		for _, cat := range cats {
			nodes = append(nodes, CategoryTree{Category: cat, Children: build(children[cat.ID])})
		}
		return nodes
	}

	return build(roots)
}
