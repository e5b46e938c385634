// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/compare"
	"github.com/your-org/storefront/internal/domain/discount"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/upload"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/email"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/pdf"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	appLogger.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting application")

	// Connect to database
	db, err := postgres.NewConnection(cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	resolver := discount.NewResolver()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), appLogger)
	if err := migration.RunAutoMigrations(); err != nil {
		appLogger.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		appLogger.WithError(err).Fatal("Index creation failed")
	}

	// Seed demo data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(auth.NewPasswordManager(cfg.Security.BcryptCost)); err != nil {
			appLogger.WithError(err).Warn("Data seeding failed")
		}
		if err := migration.GetTableInfo(); err != nil {
			appLogger.WithError(err).Warn("Failed to read table info")
		}
	}

	sessions := session.NewStore(redisClient.GetClient(), cfg.Session)
	h, err := buildHandlers(cfg, db.GetDB(), sessions, resolver, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to build handlers")
	}

	server := http.NewServer(cfg, http.Deps{
		DB:       db.GetDB(),
		Redis:    redisClient.GetClient(),
		Sessions: sessions,
		Tokens:   auth.NewJWTManager(cfg),
		Handlers: h,
	}, appLogger)

	go func() {
		if err := server.Start(); err != nil {
			appLogger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLogger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	appLogger.Info("Server shutdown completed")
}

// buildHandlers wires the domain services into HTTP handlers
func buildHandlers(cfg *config.Config, db *gorm.DB, sessions *session.Store, resolver *discount.Resolver, log *logrus.Logger) (routes.Handlers, error) {
	mailer, err := email.NewEmailService(cfg, log)
	if err != nil {
		return routes.Handlers{}, err
	}
	notifier := email.NewNotifier(mailer, log)

	products := product.NewService(db, cfg).WithClock(resolver.Now)
	orders := order.NewService(db, cfg)
	carts := cart.NewService(db, sessions, products, resolver, log)

	users := user.NewService(db, cfg, user.Deps{
		Mailer: mailer,
		Carts:  carts,
		Orders: orders,
		Viewed: products,
	}, log)

	checkouts := checkout.NewService(orders, users, carts, notifier, log)

	gateway := payment.NewHTTPGateway(cfg.External.Gateway, log)
	payments := payment.NewService(orders, gateway, notifier, cfg.External.Gateway.Timeout, log).WithLocker(sessions)

	comparisons := compare.NewService(products, resolver, sessions, cfg.Compare)

	return routes.Handlers{
		Auth:     handlers.NewAuthHandler(users, sessions, cfg.Session, log),
		Account:  handlers.NewAccountHandler(users, upload.NewService(cfg.Upload, log)),
		Product:  handlers.NewProductHandler(products, resolver, log),
		Category: handlers.NewCategoryHandler(products),
		Cart:     handlers.NewCartHandler(carts),
		Compare:  handlers.NewCompareHandler(comparisons),
		Checkout: handlers.NewCheckoutHandler(checkouts, carts),
		Payment:  handlers.NewPaymentHandler(payments),
		Order:    handlers.NewOrderHandler(orders, pdf.NewService(cfg)),
	}, nil
}
