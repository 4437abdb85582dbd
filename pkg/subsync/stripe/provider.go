// Package stripe implements the webhook-facing half of the pipeline: it
// verifies that inbound payloads genuinely originate from Stripe, classifies
// the event against an explicit guard table, re-fetches the authoritative
// subscription and invoice records, and hands them to the synchronizer.
package stripe

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v83"

	"github.com/abhinavshm95/subsync/pkg/subsync"
	"github.com/abhinavshm95/subsync/pkg/subsync/internal"
)

const (
	defaultRateLimitWindow   = time.Minute
	defaultRateLimitRequests = 100
	maxBodyBytes             = 256 * 1024

	billingReasonCreate = "subscription_create"
	billingReasonCycle  = "subscription_cycle"

	objectInvoice      = "invoice"
	objectSubscription = "subscription"
	modeSubscription   = "subscription"
)

// Config holds configuration for the Stripe webhook processor.
type Config struct {
	// StripeAPIKey authenticates outbound retrieval calls (required).
	StripeAPIKey string

	// StripeWebhookSecret verifies inbound event signatures. May be empty,
	// in which case the processor fails closed and rejects every event.
	StripeWebhookSecret string

	// Synchronizer pushes canonical state downstream (required).
	Synchronizer *subsync.Synchronizer

	// Logger is an optional structured logger.
	Logger subsync.Logger

	// Metrics is an optional metrics collector.
	Metrics subsync.Metrics

	// RedisClient, when set, backs the per-IP rate limiter with Redis so
	// the limit holds across replicas. If nil, an in-memory limiter is used.
	RedisClient redis.UniversalClient
}

// Processor verifies, classifies and resolves Stripe webhook events.
// It holds no per-event state; concurrent invocations share only the
// injected clients.
type Processor struct {
	backend       billingBackend
	synchronizer  *subsync.Synchronizer
	webhookSecret []byte
	rateLimit     func(http.Handler) http.Handler
	logger        subsync.Logger
	metrics       subsync.Metrics
}

// NewProcessor creates a new Stripe webhook processor.
func NewProcessor(config Config) (*Processor, error) {
	apiKey := strings.TrimSpace(config.StripeAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("stripe API key is required")
	}
	if config.Synchronizer == nil {
		return nil, fmt.Errorf("synchronizer is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = &subsync.NoopLogger{}
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &subsync.NoopMetrics{}
	}

	var rateLimit func(http.Handler) http.Handler
	if config.RedisClient != nil {
		limiter := internal.NewRedisRateLimiter(config.RedisClient, "", defaultRateLimitRequests, defaultRateLimitWindow)
		rateLimit = limiter.Middleware
	} else {
		limiter := internal.NewRateLimiter(defaultRateLimitRequests, defaultRateLimitWindow)
		rateLimit = limiter.Middleware
	}

	return &Processor{
		backend:       &clientBackend{client: stripe.NewClient(apiKey)},
		synchronizer:  config.Synchronizer,
		webhookSecret: []byte(strings.TrimSpace(config.StripeWebhookSecret)),
		rateLimit:     rateLimit,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Handler returns the HTTP handler that receives Stripe webhook invocations,
// wrapped with per-IP rate limiting.
func (p *Processor) Handler() http.Handler {
	return p.rateLimit(http.HandlerFunc(p.handleWebhook))
}
