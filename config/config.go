package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL string

	// PubNub configuration (payment outcome notifications)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PaymentChannel     string

	// Payment gateway
	GatewayProvider   string
	Currency          string
	WebhookSecretHash string
	WebhookSigningKey string

	// Reservation configuration
	HoldTTL           time.Duration
	ReaperInterval    time.Duration
	ReconcileInterval time.Duration

	// Ticket issuance
	TicketSigningKey string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PaymentChannel:     getEnv("PAYMENT_CHANNEL", "bank-payment-notifications"),

		// Gateway
		GatewayProvider:   getEnv("GATEWAY_PROVIDER", "mock"),
		Currency:          getEnv("CURRENCY", "LAK"),
		WebhookSecretHash: getEnv("WEBHOOK_SECRET_HASH", ""),
		WebhookSigningKey: getEnv("WEBHOOK_SIGNING_KEY", ""),

		// Reservations
		HoldTTL:           getEnvAsDuration("HOLD_TTL", "10m"),
		ReaperInterval:    getEnvAsDuration("REAPER_INTERVAL", "30s"),
		ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", "1m"),

		// Tickets
		TicketSigningKey: getEnv("TICKET_SIGNING_KEY", "dev-only-signing-key"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
