package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
)

// PayloadStore is the key/value surface the cache needs.
type PayloadStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheOptions configures the cached source.
type CacheOptions struct {
	TTL       time.Duration
	KeyPrefix string
	Logger    *logger.Logger
	Metrics   *metrics.CacheMetrics
}

type cachedSource struct {
	next    Source
	store   PayloadStore
	ttl     time.Duration
	prefix  string
	logg    *logger.Logger
	metrics *metrics.CacheMetrics
}

// NewCachedSource keeps successful payloads from next for a short TTL.
// Store failures are logged and the request falls through to next.
func NewCachedSource(next Source, store PayloadStore, opts CacheOptions) (Source, error) {
	if next == nil {
		return nil, fmt.Errorf("source required")
	}
	if store == nil {
		return nil, fmt.Errorf("payload store required")
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive")
	}
	return &cachedSource{
		next:    next,
		store:   store,
		ttl:     opts.TTL,
		prefix:  strings.TrimSpace(opts.KeyPrefix),
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}, nil
}

func (c *cachedSource) Fetch(ctx context.Context, filter types.Filter) (types.RawPayload, error) {
	key := c.key(filter)

	cached, ok, err := c.store.GetBytes(ctx, key)
	switch {
	case err != nil:
		c.metrics.Inc(metrics.CacheError)
		c.warn(ctx, "analytics.cache.get_failed", err)
	case ok:
		c.metrics.Inc(metrics.CacheHit)
		return types.RawPayload(cached), nil
	default:
		c.metrics.Inc(metrics.CacheMiss)
	}

	payload, err := c.next.Fetch(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := c.store.SetBytes(ctx, key, payload, c.ttl); err != nil {
		c.metrics.Inc(metrics.CacheError)
		c.warn(ctx, "analytics.cache.set_failed", err)
	}
	return payload, nil
}

// key hashes the filter so access keys never appear in the store.
func (c *cachedSource) key(filter types.Filter) string {
	h := sha256.New()
	for _, part := range []string{
		filter.Endpoint,
		filter.DateFrom.Format(types.DateLayout),
		filter.DateTo.Format(types.DateLayout),
		strconv.Itoa(filter.Page),
		strconv.Itoa(filter.Limit),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if filter.Key != nil {
		h.Write([]byte{1})
		h.Write([]byte(*filter.Key))
	}
	sum := hex.EncodeToString(h.Sum(nil))

	prefix := c.prefix
	if prefix == "" {
		prefix = "sa"
	}
	return prefix + ":orders:" + filter.Endpoint + ":" + sum
}

func (c *cachedSource) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
