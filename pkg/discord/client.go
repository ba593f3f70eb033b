package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/modfleet/gatehouse/pkg/observability"
)

// DefaultBaseURL is the Discord REST API root
const DefaultBaseURL = "https://discord.com/api/v10"

// DefaultTimeout bounds each round trip so a hung upstream cannot stall the
// caller's retry loop
const DefaultTimeout = 10 * time.Second

// Guild is a community the authenticated user belongs to
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Member is the authenticated user's membership in a single guild
type Member struct {
	Roles []string `json:"roles"`
}

// Gateway is the outbound identity provider surface consumed by the access
// engine. Implementations report facts; retry policy belongs to the caller.
type Gateway interface {
	// ListGuilds returns the guilds the token's user belongs to
	ListGuilds(ctx context.Context, bearerToken string) ([]Guild, error)
	// GetGuildMember returns the token's user membership in one guild
	GetGuildMember(ctx context.Context, bearerToken, guildID string) (*Member, error)
}

// Client is an HTTP Gateway implementation against the Discord REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMetrics records gateway call counters and latency
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests)
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Discord API client. baseURL may be empty for the
// production endpoint.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListGuilds returns the guilds the token's user belongs to
func (c *Client) ListGuilds(ctx context.Context, bearerToken string) ([]Guild, error) {
	var guilds []Guild
	err := c.getJSON(ctx, "/users/@me/guilds", "list_guilds", bearerToken, &guilds)
	if err != nil {
		return nil, err
	}
	return guilds, nil
}

// GetGuildMember returns the token's user membership in one guild
func (c *Client) GetGuildMember(ctx context.Context, bearerToken, guildID string) (*Member, error) {
	var member Member
	path := fmt.Sprintf("/users/@me/guilds/%s/member", guildID)
	err := c.getJSON(ctx, path, "get_guild_member", bearerToken, &member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// getJSON performs a single bearer-authenticated GET round trip and decodes
// the 2xx body into out. No retries here: the client reports facts and the
// access engine decides retry policy.
func (c *Client) getJSON(ctx context.Context, path, endpoint, bearerToken string, out interface{}) error {
	start := time.Now()
	err := c.doGetJSON(ctx, path, bearerToken, out)
	if c.metrics != nil {
		c.metrics.ObserveGatewayCall(endpoint, classifyResult(err), time.Since(start))
	}
	return err
}

func (c *Client) doGetJSON(ctx context.Context, path, bearerToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &NetworkError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &MalformedResponseError{Err: err}
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return ErrForbidden
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp)
		io.Copy(io.Discard, resp.Body)
		return &RateLimitError{RetryAfter: retryAfter}
	default:
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Status: resp.StatusCode}
	}
}

// parseRetryAfter reads the Retry-After header (seconds, possibly fractional)
func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(header, 64); err == nil && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	return 0
}

// classifyResult maps an error to a metrics label
func classifyResult(err error) string {
	if err == nil {
		return "ok"
	}
	var rateLimitErr *RateLimitError
	var statusErr *StatusError
	var networkErr *NetworkError
	var malformedErr *MalformedResponseError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.As(err, &rateLimitErr):
		return "rate_limited"
	case errors.As(err, &statusErr):
		return "http_error"
	case errors.As(err, &networkErr):
		return "network_error"
	case errors.As(err, &malformedErr):
		return "malformed"
	default:
		return "error"
	}
}
