// Package app assembles the storefront HTTP server from its dependencies.
package app

import (
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/cache"
	"storefront/pkg/payment"
	"storefront/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the long-lived resources the server is built from. Cache and
// Events are optional.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	Gateway  payment.Gateway
	Uploader storage.Uploader
	Cache    *cache.Cache
	Events   services.EventPublisher
}

// NewGateway returns the payment provider selected by cfg.Provider.
func NewGateway(cfg config.PaymentConfig) payment.Gateway {
	if cfg.Provider == "midtrans" {
		return payment.NewMidtrans(payment.MidtransConfig{
			ServerKey:   cfg.MidtransServerKey,
			Environment: cfg.MidtransEnv,
		})
	}
	return payment.NewPayPal(payment.PayPalConfig{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		BaseURL:      cfg.PayPalBaseURL,
		Timeout:      15 * time.Second,
	})
}

// New builds the fiber app with every route registered under /api.
func New(deps Deps) *fiber.App {
	cfg, log := deps.Config, deps.Log

	userRepo := repositories.NewGORMUserRepository(deps.DB)
	productRepo := repositories.NewGORMProductRepository(deps.DB)
	cartRepo := repositories.NewGORMCartRepository(deps.DB)
	addressRepo := repositories.NewGORMAddressRepository(deps.DB)
	couponRepo := repositories.NewGORMCouponRepository(deps.DB)
	orderRepo := repositories.NewGORMOrderRepository(deps.DB)
	reviewRepo := repositories.NewGORMReviewRepository(deps.DB)
	bannerRepo := repositories.NewGORMBannerRepository(deps.DB)

	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, log)
	productService := services.NewProductService(productRepo, deps.Uploader, deps.Cache, log)
	cartService := services.NewCartService(cartRepo, productRepo)
	addressService := services.NewAddressService(addressRepo)
	couponService := services.NewCouponService(couponRepo)
	orderService := services.NewOrderService(orderRepo, deps.Gateway, deps.Events, deps.Cache, cfg.Order.AllowBackorder, log)
	reviewService := services.NewReviewService(reviewRepo, orderRepo, deps.Cache)
	settingsService := services.NewSettingsService(bannerRepo, productRepo, deps.Uploader, deps.Cache, cfg.Settings.MaxFeaturedProducts, log)

	guards := handlers.Guards{
		Auth:  middleware.AuthRequired(authService),
		Admin: middleware.SuperAdminOnly(),
	}

	app := fiber.New(fiber.Config{
		AppName:   "storefront",
		BodyLimit: 20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.ClientURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: true,
	}))
	if cfg.IsProduction() {
		app.Use(middleware.RequestLogger(log))
	} else {
		app.Use(logger.New())
	}

	app.Static(cfg.Upload.BaseURL, cfg.Upload.Dir)

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		code := fiber.StatusOK
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"rabbitmq": deps.Events != nil,
			"cache":    deps.Cache != nil,
		})
	})

	api := app.Group("/api")
	handlers.NewAuthHandler(authService, guards, cfg.IsProduction(), log).RegisterRoutes(api)
	handlers.NewProductHandler(productService, guards, log).RegisterRoutes(api)
	handlers.NewCartHandler(cartService, guards, log).RegisterRoutes(api)
	handlers.NewAddressHandler(addressService, guards, log).RegisterRoutes(api)
	handlers.NewCouponHandler(couponService, guards, log).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, guards, log).RegisterRoutes(api)
	handlers.NewReviewHandler(reviewService, guards, log).RegisterRoutes(api)
	handlers.NewSettingsHandler(settingsService, guards, log).RegisterRoutes(api)

	return app
}
