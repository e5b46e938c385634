// internal/interfaces/http/handlers/helpers.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/upload"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

const (
	stepOnePath   = "/api/v1/checkout/step-one"
	stepTwoPath   = "/api/v1/checkout/step-two"
	stepThreePath = "/api/v1/checkout/step-three"
)

var stepPaths = map[checkout.Step]string{
	checkout.StepOne:   stepOnePath,
	checkout.StepTwo:   stepTwoPath,
	checkout.StepThree: stepThreePath,
}

// parseID reads a numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

// currentSession returns the request session or answers 500 when the
// session middleware did not run
func currentSession(c *gin.Context) (*session.Session, bool) {
	sess := middleware.GetSession(c)
	if sess == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Session not available",
		})
		return nil, false
	}
	return sess, true
}

// requireUser returns the authenticated user id or answers 401
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return 0, false
	}
	return userID, true
}

// cartOwner identifies the cart of the caller: rows for a signed in user,
// the session otherwise
func cartOwner(c *gin.Context) (cart.Owner, bool) {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return cart.Owner{UserID: &userID}, true
	}
	sess, ok := currentSession(c)
	if !ok {
		return cart.Owner{}, false
	}
	return cart.Owner{Session: sess}, true
}

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, message string, err error) {
	var validationErr *checkout.ValidationError
	var incompleteErr *checkout.IncompleteError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  message,
			"step":   validationErr.Step,
			"fields": validationErr.Fields,
		})
	case errors.As(err, &incompleteErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":   message,
			"details": err.Error(),
			"step":    incompleteErr.Missing,
			"start":   stepPaths[incompleteErr.Missing],
		})
	case errors.Is(err, order.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
			"start": stepOnePath,
		})
	case errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, product.ErrSellerNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, cart.ErrItemNotInCart):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, order.ErrAlreadyPlaced),
		errors.Is(err, order.ErrAlreadyPaid),
		errors.Is(err, order.ErrNotPlaced),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, payment.ErrMethodMismatch):
		c.JSON(http.StatusConflict, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, payment.ErrMissingNonce),
		errors.Is(err, user.ErrPasswordMismatch),
		errors.Is(err, user.ErrWeakPassword),
		errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrExtensionDenied),
		errors.Is(err, upload.ErrNotAnImage),
		errors.Is(err, upload.ErrImageTooLarge):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	case errors.Is(err, payment.ErrGatewayUnavailable),
		errors.Is(err, session.ErrLocked):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": message,
		})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}
