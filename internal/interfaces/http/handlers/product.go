// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// Pricer resolves the price a customer pays for an offer
type Pricer interface {
	DiscountedPrice(sp *product.SellerProduct) decimal.Decimal
}

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	productService *product.Service
	pricer         Pricer
	logger         *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service, pricer Pricer, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		pricer:         pricer,
		logger:         logger,
	}
}

// OfferView is an offer with the price resolved for today
type OfferView struct {
	product.Offer
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// CommentRequest is the body of POST /catalog/products/:slug/comments
type CommentRequest struct {
	Author  string `json:"author" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
}

// GetProducts handles GET /catalog/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	h.list(c, product.All{})
}

// GetCategoryProducts handles GET /catalog/categories/:id/products
func (h *ProductHandler) GetCategoryProducts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.list(c, product.ByCategory{CategoryID: id})
}

// GetSellerProducts handles GET /catalog/sellers/:id/products
func (h *ProductHandler) GetSellerProducts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.list(c, product.BySeller{SellerID: id})
}

// GetProductBySlug handles GET /catalog/products/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	detail, err := h.productService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, "Product not found", err)
		return
	}

	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		if err := h.productService.RecordView(c.Request.Context(), userID, detail.Product.ID); err != nil {
			h.logger.WithError(err).WithField("product_id", detail.Product.ID).Warn("Failed to record viewed product")
		}
	}

	offers := make([]gin.H, 0, len(detail.Offers))
	for i := range detail.Offers {
		offers = append(offers, gin.H{
			"offer":            detail.Offers[i],
			"discounted_price": h.pricer.DiscountedPrice(&detail.Offers[i]),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data": gin.H{
			"product":        detail.Product,
			"specifications": detail.Product.SpecMap(),
			"tags":           detail.Product.TagNames(),
			"offers":         offers,
		},
	})
}

// AddComment handles POST /catalog/products/:slug/comments
func (h *ProductHandler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	detail, err := h.productService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, "Product not found", err)
		return
	}

	var userID *uint
	if id, ok := middleware.GetUserIDFromContext(c); ok {
		userID = &id
	}

	comment, err := h.productService.AddComment(c.Request.Context(), detail.Product.ID, userID,
		strings.TrimSpace(req.Author), strings.TrimSpace(req.Content))
	if err != nil {
		respondError(c, "Failed to add comment", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment added successfully",
		"data":    comment,
	})
}

// GetSellers handles GET /catalog/sellers
func (h *ProductHandler) GetSellers(c *gin.Context) {
	sellers, err := h.productService.Sellers(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to retrieve sellers", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sellers retrieved successfully",
		"data":    sellers,
	})
}

// GetSeller handles GET /catalog/sellers/:id
func (h *ProductHandler) GetSeller(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	seller, err := h.productService.GetSeller(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Seller not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Seller retrieved successfully",
		"data":    seller,
	})
}

// GetTags handles GET /catalog/tags
func (h *ProductHandler) GetTags(c *gin.Context) {
	tags, err := h.productService.Tags(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to retrieve tags", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tags retrieved successfully",
		"data":    tags,
	})
}

func (h *ProductHandler) list(c *gin.Context, q product.Query) {
	var req product.FilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	if _, err := product.ParsePriceRange(req.Price); err != nil {
		bindError(c, err)
		return
	}

	response, err := h.productService.List(c.Request.Context(), q, &req)
	if err != nil {
		respondError(c, "Failed to retrieve products", err)
		return
	}

	offers := make([]OfferView, 0, len(response.Offers))
	for _, offer := range response.Offers {
		offers = append(offers, OfferView{
			Offer:           offer,
			DiscountedPrice: h.pricer.DiscountedPrice(&offer.SellerProduct),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data": gin.H{
			"offers":     offers,
			"pagination": response.Pagination,
			"filter":     req,
		},
	})
}
