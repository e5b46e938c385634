// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// AddToCartRequest is the body of POST /cart/items
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// UpdateCartItemRequest is the body of PUT /cart/items/:id. ProductID swaps
// the line to another offer when set. Quantities below one become one.
type UpdateCartItemRequest struct {
	Quantity  int  `json:"quantity"`
	ProductID uint `json:"product_id"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	h.respondSummary(c, store, "Cart retrieved successfully")
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	h.mutate(c, "Item added to cart successfully", func(ctx context.Context, store cart.Store) error {
		return h.cartService.Add(ctx, store, req.ProductID)
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	lineID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	productID := req.ProductID
	if productID == 0 {
		productID = lineID
	}

	h.mutate(c, "Cart item updated successfully", func(ctx context.Context, store cart.Store) error {
		return h.cartService.UpdateQuantity(ctx, store, productID, req.Quantity, lineID)
	})
}

// IncreaseCartItem handles POST /cart/items/:id/increase
func (h *CartHandler) IncreaseCartItem(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	h.mutate(c, "Cart item increased", func(ctx context.Context, store cart.Store) error {
		return h.cartService.Increase(ctx, store, productID)
	})
}

// DecreaseCartItem handles POST /cart/items/:id/decrease
func (h *CartHandler) DecreaseCartItem(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	h.mutate(c, "Cart item decreased", func(ctx context.Context, store cart.Store) error {
		return h.cartService.Decrease(ctx, store, productID)
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	h.mutate(c, "Item removed from cart successfully", func(ctx context.Context, store cart.Store) error {
		return h.cartService.Remove(ctx, store, productID)
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	h.mutate(c, "Cart cleared successfully", func(ctx context.Context, store cart.Store) error {
		return h.cartService.Clear(ctx, store)
	})
}

func (h *CartHandler) store(c *gin.Context) (cart.Store, bool) {
	owner, ok := cartOwner(c)
	if !ok {
		return nil, false
	}
	return h.cartService.StoreFor(owner), true
}

func (h *CartHandler) mutate(c *gin.Context, message string, fn func(ctx context.Context, store cart.Store) error) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), store); err != nil {
		respondError(c, "Failed to update cart", err)
		return
	}

	h.respondSummary(c, store, message)
}

func (h *CartHandler) respondSummary(c *gin.Context, store cart.Store, message string) {
	summary, err := h.cartService.Summary(c.Request.Context(), store)
	if err != nil {
		respondError(c, "Failed to retrieve cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    summary,
	})
}
