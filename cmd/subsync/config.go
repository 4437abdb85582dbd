package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type config struct {
	Port                string `validate:"required"`
	StripeAPIKey        string `validate:"required"`
	StripeWebhookSecret string
	Auth0Domain         string `validate:"required,hostname"`
	Auth0ClientID       string `validate:"required"`
	Auth0ClientSecret   string `validate:"required"`
	Auth0Audience       string
	RedisAddr           string
	LogLevel            string
}

// loadConfig reads configuration from the environment, optionally seeded
// from a .env file. The Stripe webhook secret is deliberately not required:
// without it the processor fails closed and rejects every event, which beats
// refusing to boot in a partially configured environment.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	cfg := config{
		Port:                getenv("PORT", "8080"),
		StripeAPIKey:        os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_APP_SECRET"),
		Auth0Domain:         os.Getenv("AUTH_ZERO_DOMAIN"),
		Auth0ClientID:       os.Getenv("AUTH_ZERO_CLIENT_ID"),
		Auth0ClientSecret:   os.Getenv("AUTH_ZERO_CLIENT_SECRET"),
		Auth0Audience:       os.Getenv("AUTH_ZERO_AUDIENCE"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func getenv(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}
