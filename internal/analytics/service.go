package analytics

import (
	"context"
	"fmt"

	"github.com/angelmondragon/sales-analytics/internal/analytics/reshape"
	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
)

// Service answers dashboard order queries.
type Service interface {
	// Query fetches one page of orders for a normalized filter.
	Query(ctx context.Context, filter types.Filter) (*types.ProxyResponse, error)
}

type service struct {
	source Source
	logg   *logger.Logger
}

// NewService builds a service that reads from source and reshapes its payloads.
func NewService(source Source, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("order source required")
	}
	return &service{source: source, logg: logg}, nil
}

func (s *service) Query(ctx context.Context, filter types.Filter) (*types.ProxyResponse, error) {
	payload, err := s.source.Fetch(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp, err := reshape.Reshape(payload, filter)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"rows":      len(resp.Data),
			"page":      resp.Pagination.CurrentPage,
			"last_page": resp.Pagination.LastPage,
		})
		s.logg.Debug(ctx, "analytics.query.reshaped")
	}
	return resp, nil
}
