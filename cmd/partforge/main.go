package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"partforge/internal/config"
	"partforge/internal/http/handlers"
	applog "partforge/internal/log"
	"partforge/internal/payment"
	"partforge/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	var gw payment.Gateway
	switch cfg.PaymentMode {
	case "intent":
		gw = payment.NewIntentAdapter(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.WebhookSecret, cfg.GatewayTimeout)
	default:
		gw = payment.NewHostedAdapter(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.WebhookSecret, cfg.GatewayTimeout)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong, please try again",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// The gateway retries webhooks on its own schedule; throttling
			// it would turn retries into a backlog.
			p := string(c.Request().URI().Path())
			return p == "/webhook" || p == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.limit.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, gw)

	// Catalog API
	api := app.Group("/api/v1")
	api.Get("/components/:category", deps.CatalogHandler.List)

	// Builder (working configuration)
	app.Get("/builder", deps.BuilderHandler.Current)
	app.Post("/builder/select", deps.BuilderHandler.Select)
	app.Get("/builder/evaluate", deps.BuilderHandler.Evaluate)
	app.Get("/builder/estimate", deps.BuilderHandler.Estimate)
	app.Post("/builder/reset", deps.BuilderHandler.Reset)

	// Saved builds & prebuilts
	app.Get("/builds", deps.BuildHandler.List)
	app.Post("/builds", deps.BuildHandler.Save)
	app.Get("/builds/:id", deps.BuildHandler.View)
	app.Post("/builds/:id/delete", deps.BuildHandler.Delete)
	app.Post("/builds/:id/load", deps.BuildHandler.Load)

	// Cart
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart/add", deps.CartHandler.Add)
	app.Post("/cart/add-build", deps.CartHandler.AddBuild)
	app.Post("/cart/remove", deps.CartHandler.Remove)
	app.Post("/cart/update", deps.CartHandler.Update)

	// Checkout & payment
	app.Post("/checkout", deps.OrderHandler.Place)
	app.Post("/orders/:id/payment", deps.OrderHandler.Pay)
	app.Get("/payment/success", deps.OrderHandler.Success)
	app.Get("/payment/cancel", deps.OrderHandler.Cancel)
	app.Post("/webhook", deps.WebhookHandler.Handle)
	app.Get("/order/:id", deps.OrderHandler.View)

	// Fulfillment (back office)
	admin := app.Group("/admin", handlers.RequireAdminToken(cfg.AdminToken))
	admin.Get("/orders", deps.FulfillmentHandler.List)
	admin.Post("/orders/:id/status", deps.FulfillmentHandler.UpdateStatus)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + strings.TrimPrefix(cfg.Port, ":")))
}
