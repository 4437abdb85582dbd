package auth0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abhinavshm95/subsync/pkg/subsync"
)

const defaultHTTPTimeout = 10 * time.Second

// TokenSource produces a short-lived bearer credential scoped to management
// operations. The credential-exchange strategy is injected into the Sink so
// alternative flows (or a caching wrapper) can be swapped in without touching
// the patch logic.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ClientCredentialsConfig holds configuration for the machine-to-machine
// client-credentials exchange.
type ClientCredentialsConfig struct {
	// Domain is the Auth0 tenant domain, e.g. "tenant.us.auth0.com" (required).
	Domain string

	// ClientID identifies the machine-to-machine application (required).
	ClientID string

	// ClientSecret authenticates the exchange (required).
	ClientSecret string

	// Audience is the API identifier the token is scoped to.
	// Defaults to the tenant's management API.
	Audience string

	// HTTPClient is an optional HTTP client for the exchange.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client

	// Metrics is an optional metrics collector.
	Metrics subsync.Metrics

	// TokenURL overrides the exchange endpoint. Defaults to
	// https://{Domain}/oauth/token. Intended for tests.
	TokenURL string
}

// ClientCredentialsTokenSource implements TokenSource via the OAuth2
// client-credentials grant. Each call performs a fresh exchange: tokens are
// deliberately not cached across invocations.
type ClientCredentialsTokenSource struct {
	clientID     string
	clientSecret string
	audience     string
	tokenURL     string
	httpClient   *http.Client
	metrics      subsync.Metrics
}

// NewClientCredentialsTokenSource creates a new client-credentials token source.
func NewClientCredentialsTokenSource(config ClientCredentialsConfig) (*ClientCredentialsTokenSource, error) {
	domain := strings.TrimSpace(config.Domain)
	if domain == "" && config.TokenURL == "" {
		return nil, fmt.Errorf("auth0 domain is required")
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("auth0 client credentials are required")
	}

	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = "https://" + domain + "/oauth/token"
	}

	audience := config.Audience
	if audience == "" {
		audience = "https://" + domain + "/api/v2/"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &subsync.NoopMetrics{}
	}

	return &ClientCredentialsTokenSource{
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		audience:     audience,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
		metrics:      metrics,
	}, nil
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Audience     string `json:"audience"`
	GrantType    string `json:"grant_type"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token performs the exchange and returns the access token.
func (ts *ClientCredentialsTokenSource) Token(ctx context.Context) (string, error) {
	payload, err := json.Marshal(tokenRequest{
		ClientID:     ts.clientID,
		ClientSecret: ts.clientSecret,
		Audience:     ts.audience,
		GrantType:    "client_credentials",
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", subsync.ErrCredentialExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", subsync.ErrCredentialExchange, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		ts.metrics.RecordTokenExchange("error")
		return "", fmt.Errorf("%w: %v", subsync.ErrCredentialExchange, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		ts.metrics.RecordTokenExchange("error")
		return "", fmt.Errorf("%w: status %d", subsync.ErrCredentialExchange, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		ts.metrics.RecordTokenExchange("error")
		return "", fmt.Errorf("%w: decode response: %v", subsync.ErrCredentialExchange, err)
	}
	if token.AccessToken == "" {
		ts.metrics.RecordTokenExchange("error")
		return "", fmt.Errorf("%w: empty access token", subsync.ErrCredentialExchange)
	}

	ts.metrics.RecordTokenExchange("success")
	return token.AccessToken, nil
}
