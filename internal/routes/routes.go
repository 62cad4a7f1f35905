package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/hyperpay/internal/config"
	"github.com/example/hyperpay/internal/handlers"
	"github.com/example/hyperpay/internal/middleware"
	"github.com/example/hyperpay/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	brands, err := services.NewBrandResolver(cfg.EntityID, cfg.EntityIDMada, cfg.EntityIDApplePay)
	if err != nil {
		log.Fatalf("brand resolver: %v", err)
	}

	gatewayCfg := services.GatewayConfig{
		AccessToken:        cfg.AccessToken,
		SandboxMode:        cfg.SandboxMode,
		ProductionURL:      cfg.ProductionURL,
		Currency:           cfg.Currency,
		ShopperRedirectURL: cfg.ShopperRedirectURL,
		Timeout:            cfg.GatewayTimeout,
	}

	client := services.NewGatewayClient(gatewayCfg)
	store := services.NewTransactionStore(db, brands)
	checkout := services.NewCheckoutService(gatewayCfg, client, store, brands)
	paymentHandler := handlers.NewPaymentHandler(checkout)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	payments := api.Group("/payments", middleware.AuthMiddleware(cfg))
	payments.Post("/checkout", paymentHandler.Checkout)
	payments.Get("/status", paymentHandler.Status)
	payments.Post("/recurring", paymentHandler.Recurring)
	payments.Get("/transactions", paymentHandler.ListTransactions)
}
