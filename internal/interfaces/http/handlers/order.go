// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

// OrderHandler handles order history and invoices
type OrderHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, pdfService *pdf.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		pdfService:   pdfService,
	}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	orders, err := h.orderService.ListForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, "Failed to retrieve orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, ok := h.owned(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// GetInvoice handles GET /orders/:id/invoice and streams a PDF
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	o, ok := h.owned(c)
	if !ok {
		return
	}

	buf, err := h.pdfService.GenerateInvoice(o)
	if err != nil {
		if errors.Is(err, pdf.ErrNotInvoiceable) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invoice not available",
				"details": err.Error(),
			})
			return
		}
		respondError(c, "Failed to generate invoice", err)
		return
	}

	filename := fmt.Sprintf("invoice-%s.pdf", o.Number())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// GetInvoiceHTML handles GET /orders/:id/invoice/html
func (h *OrderHandler) GetInvoiceHTML(c *gin.Context) {
	o, ok := h.owned(c)
	if !ok {
		return
	}

	html, err := h.pdfService.RenderHTML(o)
	if err != nil {
		if errors.Is(err, pdf.ErrNotInvoiceable) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invoice not available",
				"details": err.Error(),
			})
			return
		}
		respondError(c, "Failed to render invoice", err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *OrderHandler) owned(c *gin.Context) (*order.Order, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	o, err := h.orderService.GetForUser(c.Request.Context(), orderID, userID)
	if err != nil {
		respondError(c, "Order not found", err)
		return nil, false
	}
	return o, true
}
