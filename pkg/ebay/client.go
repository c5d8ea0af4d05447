package ebay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// Sandbox URLs
	SandboxAuthURL    = "https://auth.sandbox.ebay.com/oauth2/authorize"
	SandboxTokenURL   = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	SandboxAPIBaseURL = "https://api.sandbox.ebay.com"

	// Production URLs
	ProductionAuthURL    = "https://auth.ebay.com/oauth2/authorize"
	ProductionTokenURL   = "https://api.ebay.com/identity/v1/oauth2/token"
	ProductionAPIBaseURL = "https://api.ebay.com"
)

// Config holds marketplace API configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Sandbox      bool
	Scopes       []string

	// CallTimeout bounds every single outbound call.
	CallTimeout time.Duration
	// RateLimit/RateBurst configure the token bucket pacing all calls.
	RateLimit float64
	RateBurst int
}

// Client is the marketplace API client. It is tenant-agnostic: the caller
// supplies the per-tenant access token on every call.
type Client struct {
	httpClient  *http.Client
	oauthConfig *oauth2.Config
	baseURL     string
	limiter     *rate.Limiter
	callTimeout time.Duration
	debug       bool
}

// NewClient constructs a marketplace client with sane defaults.
func NewClient(cfg Config) *Client {
	var authURL, tokenURL, baseURL string
	if cfg.Sandbox {
		authURL = SandboxAuthURL
		tokenURL = SandboxTokenURL
		baseURL = SandboxAPIBaseURL
	} else {
		authURL = ProductionAuthURL
		tokenURL = ProductionTokenURL
		baseURL = ProductionAPIBaseURL
	}

	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{
			"https://api.ebay.com/oauth/api_scope",
			"https://api.ebay.com/oauth/api_scope/sell.inventory",
			"https://api.ebay.com/oauth/api_scope/sell.account",
			"https://api.ebay.com/oauth/api_scope/sell.fulfillment",
		}
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 4
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 5
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.CallTimeout + 5*time.Second},
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		baseURL:     baseURL,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		callTimeout: cfg.CallTimeout,
		debug:       cfg.Sandbox,
	}
}

// doRequest performs one rate-limited, timeout-bounded call against the Sell
// APIs using the provided per-tenant bearer token, decoding the JSON response
// into result (when result is non-nil). Non-2xx responses are parsed into a
// structured *APIError.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("endpoint", c.baseURL+path).
			RawJSON("request", jsonOrNull(payload)).
			Msg("[EBAY] Outgoing request")
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return &TimeoutError{Op: method + " " + path}
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			RawJSON("response", jsonOrNull(respBody)).
			Msg("[EBAY] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseAPIError converts a non-2xx response body into a structured APIError.
// Bodies that are not the documented error envelope still produce a usable
// error with the raw message.
func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 {
		first := env.Errors[0]
		apiErr.ErrorID = first.ErrorID
		apiErr.Domain = first.Domain
		apiErr.Message = first.Message
		if len(first.Parameters) > 0 {
			apiErr.Parameters = make(map[string]string, len(first.Parameters))
			for _, p := range first.Parameters {
				apiErr.Parameters[p.Name] = p.Value
			}
		}
		return apiErr
	}

	apiErr.Message = string(body)
	return apiErr
}

func jsonOrNull(b []byte) []byte {
	if len(b) == 0 || !json.Valid(b) {
		return []byte("null")
	}
	return b
}
