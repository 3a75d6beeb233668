// Package scorer is the HTTP client for the Passport Scorer's internal API.
package scorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"

	"passport-iam/internal/platform/config"
	dErrors "passport-iam/pkg/domain-errors"
	"passport-iam/pkg/platform/circuit"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	endpoint   string
	apiKey     string
	http       HTTPDoer
	breaker    *circuit.Breaker
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h HTTPDoer) Option {
	return func(c *Client) { c.http = h }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBackOff overrides the retry schedule; retries are still capped by the
// configured maximum.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = fn }
}

func New(cfg config.Scorer, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		http:       &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		logger:     slog.Default(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = circuit.New("scorer")
	}
	return c
}

// statusError is a non-2xx reply from the Scorer.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("scorer returned %d: %s", e.status, e.body)
}

func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// do sends one logical request with retries, decoding a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.breaker.Allow(); err != nil {
		return dErrors.External(fmt.Errorf("%s %s: %w", method, path, err), "scorer unavailable")
	}

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
	}

	op := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", c.apiKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &statusError{status: resp.StatusCode, body: truncate(string(raw), 200)}
			if retryableStatus(resp.StatusCode) {
				return serr
			}
			return backoff.Permanent(serr)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", path, err))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	err := backoff.Retry(op, b)
	if err != nil {
		var serr *statusError
		// A 4xx is the caller's problem, not an upstream outage.
		if errors.As(err, &serr) && !retryableStatus(serr.status) {
			c.breaker.RecordSuccess()
		} else {
			c.breaker.RecordFailure()
		}
		c.logger.WarnContext(ctx, "scorer request failed", "method", method, "path", path, "error", err)
		return dErrors.External(fmt.Errorf("%s %s: %w", method, path, err), "scorer request failed")
	}
	c.breaker.RecordSuccess()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FetchScoreV2 reads the current score of address under scorerID.
func (c *Client) FetchScoreV2(ctx context.Context, scorerID int64, address string) (*PassportScore, error) {
	var out PassportScore
	path := fmt.Sprintf("/internal/score/v2/%d/%s", scorerID, url.PathEscape(address))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckBans asks for the ban status of every queried nullifier.
func (c *Client) CheckBans(ctx context.Context, queries []BanQuery) ([]Ban, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	var out []Ban
	if err := c.do(ctx, http.MethodPost, "/internal/check-bans", queries, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitStamps stores auto-verified stamps and returns the refreshed score.
func (c *Client) SubmitStamps(ctx context.Context, address string, req SubmitStampsRequest) (*PassportScore, error) {
	var out PassportScore
	path := "/internal/stamps/" + url.PathEscape(address)
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsAllowListMember checks address against a named allow list.
func (c *Client) IsAllowListMember(ctx context.Context, list, address string) (bool, error) {
	var out struct {
		IsMember bool `json:"is_member"`
	}
	path := fmt.Sprintf("/internal/allow-list/%s/%s", url.PathEscape(list), url.PathEscape(address))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.IsMember, nil
}

// Health reports whether the circuit to the Scorer is closed.
func (c *Client) Health(context.Context) error {
	if c.breaker.State() == circuit.StateOpen {
		return circuit.ErrOpen
	}
	return nil
}
