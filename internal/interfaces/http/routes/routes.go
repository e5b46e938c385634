// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// Handlers groups every handler the API mounts
type Handlers struct {
	Auth     *handlers.AuthHandler
	Account  *handlers.AccountHandler
	Product  *handlers.ProductHandler
	Category *handlers.CategoryHandler
	Cart     *handlers.CartHandler
	Compare  *handlers.CompareHandler
	Checkout *handlers.CheckoutHandler
	Payment  *handlers.PaymentHandler
	Order    *handlers.OrderHandler
}

// SetupRoutes mounts the storefront API on rg
func SetupRoutes(rg *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	requireAuth := middleware.AuthMiddleware(tokens)
	optionalAuth := middleware.OptionalAuthMiddleware(tokens)

	SetupAuthRoutes(rg, h, requireAuth)
	SetupCatalogRoutes(rg, h, optionalAuth)
	SetupCartRoutes(rg, h, optionalAuth)
	SetupCompareRoutes(rg, h)
	SetupCheckoutRoutes(rg, h, requireAuth, optionalAuth)
	SetupPaymentRoutes(rg, h, requireAuth)
	SetupOrderRoutes(rg, h, requireAuth)
	SetupAccountRoutes(rg, h, requireAuth)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/restore-password", h.Auth.RestorePassword)
		auth.POST("/logout", requireAuth, h.Auth.Logout)
	}
}

// SetupCatalogRoutes sets up catalog browsing routes
func SetupCatalogRoutes(rg *gin.RouterGroup, h Handlers, optionalAuth gin.HandlerFunc) {
	catalog := rg.Group("/catalog")
	catalog.Use(optionalAuth)
	{
		catalog.GET("/products", h.Product.GetProducts)
		catalog.GET("/products/:slug", h.Product.GetProductBySlug)
		catalog.POST("/products/:slug/comments", h.Product.AddComment)

		catalog.GET("/categories", h.Category.GetCategories)
		catalog.GET("/categories/tree", h.Category.GetCategoryTree)
		catalog.GET("/categories/:id/products", h.Product.GetCategoryProducts)

		catalog.GET("/sellers", h.Product.GetSellers)
		catalog.GET("/sellers/:id", h.Product.GetSeller)
		catalog.GET("/sellers/:id/products", h.Product.GetSellerProducts)

		catalog.GET("/tags", h.Product.GetTags)
	}
}

// SetupCartRoutes sets up cart routes. Anonymous carts live in the session.
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers, optionalAuth gin.HandlerFunc) {
	cart := rg.Group("/cart")
	cart.Use(optionalAuth)
	{
		cart.GET("", h.Cart.GetCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:id", h.Cart.UpdateCartItem)
		cart.POST("/items/:id/increase", h.Cart.IncreaseCartItem)
		cart.POST("/items/:id/decrease", h.Cart.DecreaseCartItem)
		cart.DELETE("/items/:id", h.Cart.RemoveFromCart)
	}
}

// SetupCompareRoutes sets up product comparison routes
func SetupCompareRoutes(rg *gin.RouterGroup, h Handlers) {
	compare := rg.Group("/compare")
	{
		compare.GET("", h.Compare.GetComparison)
		compare.POST("", h.Compare.AddToCompare)
		compare.DELETE("/:name", h.Compare.RemoveFromCompare)
	}
}

// SetupCheckoutRoutes sets up the checkout steps
func SetupCheckoutRoutes(rg *gin.RouterGroup, h Handlers, requireAuth, optionalAuth gin.HandlerFunc) {
	checkout := rg.Group("/checkout")
	{
		checkout.GET("/step-one", optionalAuth, h.Checkout.GetStepOne)
		checkout.POST("/step-one", requireAuth, h.Checkout.PostStepOne)
		checkout.GET("/step-two", requireAuth, h.Checkout.GetStepTwo)
		checkout.POST("/step-two", requireAuth, h.Checkout.PostStepTwo)
		checkout.GET("/step-three", requireAuth, h.Checkout.GetStepThree)
		checkout.POST("/step-three", requireAuth, h.Checkout.PostStepThree)
		checkout.GET("/step-four", requireAuth, h.Checkout.GetStepFour)
	}
}

// SetupPaymentRoutes sets up payment routes
func SetupPaymentRoutes(rg *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc) {
	payment := rg.Group("/payment")
	payment.Use(requireAuth)
	{
		payment.GET("/:id", h.Payment.RoutePayment)
		payment.GET("/:id/card", h.Payment.GetCardPayment)
		payment.POST("/:id/card", h.Payment.PayWithCard)
		payment.GET("/:id/account", h.Payment.GetAccountPayment)
		payment.POST("/:id/account", h.Payment.PayWithAccount)
	}
}

// SetupOrderRoutes sets up order history routes
func SetupOrderRoutes(rg *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc) {
	orders := rg.Group("/orders")
	orders.Use(requireAuth)
	{
		orders.GET("", h.Order.GetOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.GET("/:id/invoice", h.Order.GetInvoice)
		orders.GET("/:id/invoice/html", h.Order.GetInvoiceHTML)
	}
}

// SetupAccountRoutes sets up the customer account routes
func SetupAccountRoutes(rg *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc) {
	account := rg.Group("/account")
	account.Use(requireAuth)
	{
		account.GET("", h.Account.GetAccount)
		account.GET("/profile", h.Account.GetProfile)
		account.PUT("/profile", h.Account.UpdateProfile)
		account.PUT("/avatar", h.Account.UploadAvatar)
	}
}
