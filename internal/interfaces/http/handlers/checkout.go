// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// CheckoutHandler handles the multi step checkout
type CheckoutHandler struct {
	checkoutService *checkout.Service
	cartService     *cart.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, cartService *cart.Service) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		cartService:     cartService,
	}
}

// GetStepOne handles GET /checkout/step-one. Anonymous visitors get defaults.
func (h *CheckoutHandler) GetStepOne(c *gin.Context) {
	var userID *uint
	if id, ok := middleware.GetUserIDFromContext(c); ok {
		userID = &id
	}

	initial, err := h.checkoutService.StepOneInitial(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to load checkout", err)
		return
	}
	respondStep(c, checkout.StepOne, initial)
}

// PostStepOne handles POST /checkout/step-one
func (h *CheckoutHandler) PostStepOne(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var form checkout.StepOneForm
	if err := c.ShouldBindJSON(&form); err != nil {
		bindError(c, err)
		return
	}

	draft, err := h.checkoutService.StepOne(c.Request.Context(), userID, form)
	if err != nil {
		respondError(c, "Invalid contact details", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contact details saved",
		"data":    draft,
		"next":    stepTwoPath,
	})
}

// GetStepTwo handles GET /checkout/step-two
func (h *CheckoutHandler) GetStepTwo(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	initial, err := h.checkoutService.StepTwoInitial(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to load checkout", err)
		return
	}
	respondStep(c, checkout.StepTwo, initial)
}

// PostStepTwo handles POST /checkout/step-two
func (h *CheckoutHandler) PostStepTwo(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var form checkout.StepTwoForm
	if err := c.ShouldBindJSON(&form); err != nil {
		bindError(c, err)
		return
	}

	draft, err := h.checkoutService.StepTwo(c.Request.Context(), userID, form)
	if err != nil {
		respondError(c, "Invalid delivery details", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Delivery details saved",
		"data":    draft,
		"next":    stepThreePath,
	})
}

// GetStepThree handles GET /checkout/step-three
func (h *CheckoutHandler) GetStepThree(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	initial, err := h.checkoutService.StepThreeInitial(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to load checkout", err)
		return
	}

	summary, err := h.cartService.Summary(c.Request.Context(), h.cartService.StoreFor(cart.Owner{UserID: &userID}))
	if err != nil {
		respondError(c, "Failed to retrieve cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout step loaded",
		"data": gin.H{
			"step":    checkout.StepThree,
			"initial": initial,
			"cart":    summary,
		},
	})
}

// PostStepThree handles POST /checkout/step-three and places the order
func (h *CheckoutHandler) PostStepThree(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var form checkout.StepThreeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		bindError(c, err)
		return
	}

	store := h.cartService.StoreFor(cart.Owner{UserID: &userID})
	placed, err := h.checkoutService.StepThree(c.Request.Context(), userID, store, form)
	if err != nil {
		respondError(c, "Failed to place order", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    placed,
		"next":    paymentPath(placed),
	})
}

// GetStepFour handles GET /checkout/step-four
func (h *CheckoutHandler) GetStepFour(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	placed, err := h.checkoutService.StepFour(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "No placed order", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    placed,
		"next":    paymentPath(placed),
	})
}

func respondStep(c *gin.Context, step checkout.Step, initial *checkout.Initial) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout step loaded",
		"data": gin.H{
			"step":    step,
			"initial": initial,
		},
	})
}

// paymentPath points at the payment form of the order's method
func paymentPath(o *order.Order) string {
	if o.Paid {
		return ""
	}
	return fmt.Sprintf("/api/v1/payment/%d/%s", o.ID, o.PaymentMethod)
}
