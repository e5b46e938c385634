// internal/interfaces/http/handlers/category.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/product"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	productService *product.Service
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(productService *product.Service) *CategoryHandler {
	return &CategoryHandler{productService: productService}
}

// GetCategories handles GET /catalog/categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to retrieve categories", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}

// GetCategoryTree handles GET /catalog/categories/tree
func (h *CategoryHandler) GetCategoryTree(c *gin.Context) {
	tree, err := h.productService.CategoryTree(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to retrieve category tree", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category tree retrieved successfully",
		"data":    tree,
	})
}
