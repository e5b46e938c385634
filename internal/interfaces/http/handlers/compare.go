// internal/interfaces/http/handlers/compare.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/compare"
)

// CompareHandler handles the product comparison endpoints
type CompareHandler struct {
	compareService *compare.Service
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(compareService *compare.Service) *CompareHandler {
	return &CompareHandler{compareService: compareService}
}

// AddToCompareRequest is the body of POST /compare
type AddToCompareRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetComparison handles GET /compare
func (h *CompareHandler) GetComparison(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	list, err := h.compareService.List(sess)
	if err != nil {
		respondError(c, "Failed to retrieve comparison", err)
		return
	}
	table, err := h.compareService.Table(sess)
	if err != nil {
		respondError(c, "Failed to retrieve comparison", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comparison retrieved successfully",
		"data": gin.H{
			"count":    list.Count(),
			"compared": list,
			"table":    table,
		},
	})
}

// AddToCompare handles POST /compare
func (h *CompareHandler) AddToCompare(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req AddToCompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.compareService.Add(c.Request.Context(), sess, req.ProductID)
	if err != nil {
		respondError(c, "Failed to add product to comparison", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product added to comparison",
		"data": gin.H{
			"count":    list.Count(),
			"compared": list,
		},
	})
}

// RemoveFromCompare handles DELETE /compare/:name
func (h *CompareHandler) RemoveFromCompare(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Product name required",
		})
		return
	}

	list, err := h.compareService.Remove(c.Request.Context(), sess, name)
	if err != nil {
		respondError(c, "Failed to remove product from comparison", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product removed from comparison",
		"data": gin.H{
			"count":    list.Count(),
			"compared": list,
		},
	})
}
