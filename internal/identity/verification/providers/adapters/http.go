// Package adapters reaches verification plugins that run as separate services.
package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"passport-iam/internal/identity/models"
	"passport-iam/internal/identity/verification/providers"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type HTTPProviderConfig struct {
	Type       string
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// HTTPProvider posts the payload to a remote plugin and decodes its
// VerifiedPayload response.
type HTTPProvider struct {
	typ     string
	url     string
	apiKey  string
	client  HTTPDoer
	timeout time.Duration
}

func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPProvider{
		typ:     cfg.Type,
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		client:  client,
		timeout: cfg.Timeout,
	}
}

func (a *HTTPProvider) Type() string { return a.typ }

type verifyRequest struct {
	Type    string         `json:"type"`
	Payload models.Payload `json:"payload"`
}

type verifyResponse struct {
	Valid            bool              `json:"valid"`
	Record           map[string]string `json:"record"`
	Errors           []string          `json:"errors"`
	ExpiresInSeconds int64             `json:"expiresInSeconds"`
}

func (a *HTTPProvider) Verify(ctx context.Context, payload models.Payload, _ models.ProviderContext) (models.VerifiedPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body, err := json.Marshal(verifyRequest{Type: a.typ, Payload: payload})
	if err != nil {
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorBadData, a.typ, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorInternal, a.typ, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorTimeout, a.typ, providers.TimeoutMessage(a.typ), err)
		}
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorProviderOutage, a.typ, "failed to execute request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorBadData, a.typ, "failed to read response", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorAuthentication, a.typ,
			fmt.Sprintf("authentication failed: %d", resp.StatusCode), nil)
	case http.StatusNotFound:
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorNotFound, a.typ, "verifier not found", nil)
	case http.StatusTooManyRequests:
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorRateLimited, a.typ, "rate limit exceeded", nil)
	case http.StatusGatewayTimeout:
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorTimeout, a.typ, providers.TimeoutMessage(a.typ), nil)
	default:
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorProviderOutage, a.typ,
			fmt.Sprintf("unexpected status: %d", resp.StatusCode), nil)
	}

	var out verifyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorBadData, a.typ, "failed to parse response", err)
	}
	return models.VerifiedPayload{
		Valid:            out.Valid,
		Record:           out.Record,
		Errors:           out.Errors,
		ExpiresInSeconds: out.ExpiresInSeconds,
	}, nil
}
