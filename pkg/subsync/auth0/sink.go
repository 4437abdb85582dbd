// Package auth0 implements the subsync.MetadataSink against the Auth0
// management API: a client-credentials exchange followed by a single
// app-metadata patch of the target user.
package auth0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/abhinavshm95/subsync/pkg/subsync"
)

// Config holds configuration for the Auth0 metadata sink.
type Config struct {
	// Domain is the Auth0 tenant domain, e.g. "tenant.us.auth0.com" (required
	// unless BaseURL is set).
	Domain string

	// TokenSource produces the management credential for each patch (required).
	TokenSource TokenSource

	// HTTPClient is an optional HTTP client for management calls.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client

	// Logger is an optional structured logger.
	Logger subsync.Logger

	// Metrics is an optional metrics collector.
	Metrics subsync.Metrics

	// BaseURL overrides the management API base URL. Defaults to
	// https://{Domain}. Intended for tests.
	BaseURL string
}

// Sink pushes canonical subscription state into Auth0 user app-metadata.
// The patch is a full-field overwrite of the nested object, which is what
// makes event redelivery idempotent.
type Sink struct {
	baseURL     string
	tokenSource TokenSource
	httpClient  *http.Client
	logger      subsync.Logger
	metrics     subsync.Metrics
}

// NewSink creates a new Auth0 metadata sink.
func NewSink(config Config) (*Sink, error) {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		domain := strings.TrimSpace(config.Domain)
		if domain == "" {
			return nil, fmt.Errorf("auth0 domain is required")
		}
		baseURL = "https://" + domain
	}
	if config.TokenSource == nil {
		return nil, fmt.Errorf("token source is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = &subsync.NoopLogger{}
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &subsync.NoopMetrics{}
	}

	return &Sink{
		baseURL:     baseURL,
		tokenSource: config.TokenSource,
		httpClient:  httpClient,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// patchBody nests the canonical state under the stable app_metadata.stripe
// field path. The customer id sits beside the subscription object, matching
// the layout consumers of the metadata already rely on.
type patchBody struct {
	AppMetadata appMetadata `json:"app_metadata"`
}

type appMetadata struct {
	Stripe stripeMetadata `json:"stripe"`
}

type stripeMetadata struct {
	Subscription *subsync.SubscriptionState `json:"subscription"`
	CustomerID   string                     `json:"customer_id"`
}

// PatchSubscriptionState implements subsync.MetadataSink. The credential is
// exchanged fresh per call and the patch is a single atomic request: it
// either fully applies or fails.
func (s *Sink) PatchSubscriptionState(ctx context.Context, authUserID string, state *subsync.SubscriptionState) error {
	token, err := s.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(patchBody{
		AppMetadata: appMetadata{
			Stripe: stripeMetadata{
				Subscription: state,
				CustomerID:   state.CustomerID,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: encode patch: %v", subsync.ErrMetadataPatch, err)
	}

	patchURL := s.baseURL + "/api/v2/users/" + url.PathEscape(authUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, patchURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", subsync.ErrMetadataPatch, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.RecordMetadataPatch("error")
		return fmt.Errorf("%w: %v", subsync.ErrMetadataPatch, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.metrics.RecordMetadataPatch("error")
		s.logger.Error("metadata patch rejected",
			subsync.Field{Key: "user_id", Value: authUserID},
			subsync.Field{Key: "status", Value: resp.StatusCode},
		)
		return fmt.Errorf("%w: status %d", subsync.ErrMetadataPatch, resp.StatusCode)
	}

	s.metrics.RecordMetadataPatch("success")
	return nil
}
