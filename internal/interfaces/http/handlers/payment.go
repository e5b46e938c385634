// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *payment.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payment.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CardPaymentRequest carries the nonce produced by the card form
type CardPaymentRequest struct {
	Nonce string `json:"payment_method_nonce" binding:"required"`
}

// AccountPaymentRequest carries the customer's account number
type AccountPaymentRequest struct {
	Account string `json:"account" binding:"required"`
}

// RoutePayment handles GET /payment/:id and tells which flow the order uses
func (h *PaymentHandler) RoutePayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	method, err := h.paymentService.Route(c.Request.Context(), orderID, userID)
	if err != nil {
		respondError(c, "Order cannot be paid", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment method resolved",
		"data": gin.H{
			"order_id": orderID,
			"method":   method,
		},
		"next": fmt.Sprintf("/api/v1/payment/%d/%s", orderID, method),
	})
}

// GetCardPayment handles GET /payment/:id/card
func (h *PaymentHandler) GetCardPayment(c *gin.Context) {
	h.page(c, order.PaymentCard)
}

// GetAccountPayment handles GET /payment/:id/account
func (h *PaymentHandler) GetAccountPayment(c *gin.Context) {
	h.page(c, order.PaymentAccount)
}

// PayWithCard handles POST /payment/:id/card
func (h *PaymentHandler) PayWithCard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.paymentService.PayWithCard(c.Request.Context(), orderID, userID, req.Nonce)
	respondPayment(c, result, err)
}

// PayWithAccount handles POST /payment/:id/account
func (h *PaymentHandler) PayWithAccount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AccountPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.paymentService.PayWithAccount(c.Request.Context(), orderID, userID, req.Account)
	respondPayment(c, result, err)
}

func (h *PaymentHandler) page(c *gin.Context, method order.PaymentMethod) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	page, err := h.paymentService.Page(c.Request.Context(), orderID, userID, method)
	if err != nil {
		respondError(c, "Failed to prepare payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment form ready",
		"data":    page,
	})
}

func respondPayment(c *gin.Context, result *payment.Result, err error) {
	if err != nil {
		respondError(c, "Payment failed", err)
		return
	}

	if result.Outcome == payment.OutcomeCanceled {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "Payment canceled",
			"outcome": result.Outcome,
			"data":    result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment successful",
		"outcome": result.Outcome,
		"data":    result,
	})
}
