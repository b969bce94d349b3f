package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
)

const (
	DefaultTimeout           = 10 * time.Second
	defaultMaxBodyBytes      = 10 << 20
	defaultErrorExcerptBytes = 512
	invalidJSONBody          = "invalid json"
)

// Client performs single, unretried GETs against the analytics provider.
type Client struct {
	httpClient   *http.Client
	timeout      time.Duration
	maxBody      int64
	excerptLimit int64
	logg         *logger.Logger
	metrics      *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every Fetch call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithBodyLimits caps the bytes read from successful and failed responses.
func WithBodyLimits(maxBody, excerpt int64) Option {
	return func(c *Client) {
		if maxBody > 0 {
			c.maxBody = maxBody
		}
		if excerpt > 0 {
			c.excerptLimit = excerpt
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		// Timeouts are applied per call through the request context.
		httpClient:   &http.Client{},
		timeout:      DefaultTimeout,
		maxBody:      defaultMaxBodyBytes,
		excerptLimit: defaultErrorExcerptBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Fetch issues one GET and returns the raw JSON body. Non-2xx responses and
// malformed JSON become upstream errors; network failures and timeouts
// become transport errors. The call is cancelled together with ctx.
func (c *Client) Fetch(ctx context.Context, target *url.URL) (types.RawPayload, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "upstream client not configured")
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "upstream url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")

	if c.logg != nil {
		c.logg.Debug(c.logg.WithField(ctx, "upstream_url", Redacted(target)), "upstream.request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(metrics.OutcomeTransport, time.Since(start))
		return nil, pkgerrors.Transport(transportCause(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, c.excerptLimit))
		c.metrics.Observe(metrics.OutcomeUpstreamStatus, time.Since(start))
		return nil, pkgerrors.Upstream(resp.StatusCode, strings.TrimSpace(string(trimPartialRune(excerpt))))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		c.metrics.Observe(metrics.OutcomeTransport, time.Since(start))
		return nil, pkgerrors.Transport(transportCause(err))
	}
	if int64(len(body)) > c.maxBody {
		c.metrics.Observe(metrics.OutcomeInvalidPayload, time.Since(start))
		return nil, pkgerrors.Upstream(resp.StatusCode, fmt.Sprintf("response exceeds %d bytes", c.maxBody))
	}
	if !json.Valid(body) {
		c.metrics.Observe(metrics.OutcomeInvalidPayload, time.Since(start))
		return nil, pkgerrors.Upstream(http.StatusOK, invalidJSONBody)
	}

	c.metrics.Observe(metrics.OutcomeOK, time.Since(start))
	return types.RawPayload(body), nil
}

// trimPartialRune drops a multi-byte character cut off by the excerpt limit.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		if r, size := utf8.DecodeLastRune(b); r != utf8.RuneError || size > 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// transportCause strips the *url.Error wrapper, whose message repeats the
// full upstream URL including the access key.
func transportCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr.Err, context.DeadlineExceeded) || urlErr.Timeout() {
			return fmt.Errorf("upstream request timed out: %w", urlErr.Err)
		}
		return urlErr.Err
	}
	return err
}
