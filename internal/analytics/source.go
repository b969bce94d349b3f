package analytics

import (
	"context"
	"fmt"
	"net/url"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	"github.com/angelmondragon/sales-analytics/internal/upstream"
)

// Source produces the raw order payload for a filter. The upstream provider
// and the mock generator both implement it.
type Source interface {
	Fetch(ctx context.Context, filter types.Filter) (types.RawPayload, error)
}

// Fetcher performs the HTTP call for an already built upstream URL.
type Fetcher interface {
	Fetch(ctx context.Context, target *url.URL) (types.RawPayload, error)
}

type upstreamSource struct {
	baseURL string
	client  Fetcher
}

// NewUpstreamSource reads orders from the analytics provider at baseURL.
func NewUpstreamSource(baseURL string, client Fetcher) (Source, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("upstream base url required")
	}
	return &upstreamSource{baseURL: baseURL, client: client}, nil
}

func (s *upstreamSource) Fetch(ctx context.Context, filter types.Filter) (types.RawPayload, error) {
	target, err := upstream.BuildURL(filter, s.baseURL)
	if err != nil {
		return nil, err
	}
	return s.client.Fetch(ctx, target)
}
