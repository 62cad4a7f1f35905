package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SandboxURL is the gateway test origin used unless production mode is
// configured.
const SandboxURL = "https://test.oppwa.com"

// GatewayConfig is the immutable gateway configuration handed to the payment
// core at startup.
type GatewayConfig struct {
	AccessToken        string
	SandboxMode        bool
	ProductionURL      string
	Currency           string
	ShopperRedirectURL string
	Timeout            time.Duration
}

// BaseURL returns the gateway origin selected once per client instance.
func (c GatewayConfig) BaseURL() string {
	if !c.SandboxMode && c.ProductionURL != "" {
		return strings.TrimRight(c.ProductionURL, "/")
	}
	return SandboxURL
}

// GatewayResult is a raw structured gateway response. The body is opaque to
// the client; interpreting it is the classifier's job.
type GatewayResult struct {
	StatusCode int
	Body       json.RawMessage
}

// GatewayClient sends prepared requests to the gateway. It is a pure I/O
// boundary: no retries, no caching, no interpretation of gateway semantics.
type GatewayClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewGatewayClient builds a client bound to the sandbox or production origin.
func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &GatewayClient{
		baseURL:     cfg.BaseURL(),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// BaseURL exposes the resolved gateway origin, used to compose the payment
// widget script URL returned to callers.
func (g *GatewayClient) BaseURL() string {
	return g.baseURL
}

// Post form-encodes params and posts them to the given gateway path.
func (g *GatewayClient) Post(ctx context.Context, path string, params url.Values) (*GatewayResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("gateway post %s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return g.do(req)
}

// Get requests the given gateway path with params as the query string.
func (g *GatewayClient) Get(ctx context.Context, path string, params url.Values) (*GatewayResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway get %s: build request: %w", path, err)
	}
	req.URL.RawQuery = params.Encode()

	return g.do(req)
}

func (g *GatewayClient) do(req *http.Request) (*GatewayResult, error) {
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %v", ErrTransport, req.Method, req.URL.Path, err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s %s: non-JSON body (status %d)", ErrTransport, req.Method, req.URL.Path, resp.StatusCode)
	}

	// A rejection is still a structured result; the status code is passed
	// through untouched for the classifier.
	return &GatewayResult{StatusCode: resp.StatusCode, Body: body}, nil
}
