package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port    string
	DBDSN   string
	LogFile string

	// Public base URL used to build the payment success/cancel redirects.
	PublicBaseURL string

	Currency string

	// PaymentMode selects the gateway adapter: "hosted" (redirect checkout)
	// or "intent" (client-side confirmation).
	PaymentMode    string
	GatewayURL     string
	GatewayAPIKey  string
	WebhookSecret  string
	GatewayTimeout time.Duration

	// AdminToken protects the fulfillment routes. Empty disables them.
	AdminToken string
}

func Load() Config {
	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DBDSN:         getenv("DB_DSN", "partforge.db"),
		LogFile:       getenv("LOG_FILE", "./partforge.log"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		Currency:      getenv("CURRENCY", "usd"),
		PaymentMode:   getenv("PAYMENT_MODE", "hosted"),
		GatewayURL:    getenv("GATEWAY_URL", "http://localhost:9090"),
		GatewayAPIKey: os.Getenv("GATEWAY_API_KEY"),
		WebhookSecret: os.Getenv("GATEWAY_WEBHOOK_SECRET"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
	}

	ms, err := strconv.Atoi(getenv("GATEWAY_TIMEOUT_MS", "10000"))
	if err != nil || ms <= 0 {
		ms = 10000
	}
	cfg.GatewayTimeout = time.Duration(ms) * time.Millisecond

	if cfg.PaymentMode != "hosted" && cfg.PaymentMode != "intent" {
		log.Printf("[config] unknown PAYMENT_MODE=%q, falling back to hosted", cfg.PaymentMode)
		cfg.PaymentMode = "hosted"
	}
	if cfg.WebhookSecret == "" {
		log.Printf("[config] warn: GATEWAY_WEBHOOK_SECRET is empty; webhook verification will reject everything")
	}
	if cfg.AdminToken == "" {
		log.Printf("[config] warn: ADMIN_TOKEN is empty; fulfillment routes are disabled")
	}

	log.Printf("[config] PORT=%s DB_DSN=%s PAYMENT_MODE=%s GATEWAY_URL=%s CURRENCY=%s",
		cfg.Port, cfg.DBDSN, cfg.PaymentMode, cfg.GatewayURL, cfg.Currency)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
