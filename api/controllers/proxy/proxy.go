// Package proxy serves the dashboard's single data endpoint.
package proxy

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/sales-analytics/api/responses"
	"github.com/angelmondragon/sales-analytics/internal/analytics"
	"github.com/angelmondragon/sales-analytics/internal/analytics/query"
	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
)

const allowedMethods = "GET, OPTIONS"

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// Normalizer resolves raw query parameters into a filter.
type Normalizer interface {
	Normalize(raw url.Values, now time.Time) (types.Filter, error)
}

// Orders handles GET and OPTIONS on /api/proxy.
func Orders(service analytics.Service, normalizer Normalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !allowMethod(w, r, logg) {
			return
		}

		raw := r.URL.Query()
		if strings.TrimSpace(raw.Get(query.ParamEndpoint)) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.InvalidParameter("%s is required", query.ParamEndpoint))
			return
		}

		filter, err := normalizer.Normalize(raw, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithEndpoint(ctx, filter.Endpoint)
			logg.Debug(logg.WithField(ctx, "filter", query.String(filter)), "proxy.request.normalized")
		}

		result, err := service.Query(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// DemoOrders serves generated rows as a bare array under a fixed endpoint,
// mirroring what a non-paginating upstream would return.
func DemoOrders(source analytics.Source, normalizer Normalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !allowMethod(w, r, logg) {
			return
		}

		raw := r.URL.Query()
		raw.Set(query.ParamEndpoint, "orders")

		filter, err := normalizer.Normalize(raw, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload, err := source.Fetch(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteRaw(w, http.StatusOK, payload)
	}
}

// allowMethod answers preflights and rejects anything but GET. It reports
// whether the handler should continue.
func allowMethod(w http.ResponseWriter, r *http.Request, logg *logger.Logger) bool {
	switch r.Method {
	case http.MethodGet:
		return true
	case http.MethodOptions:
		responses.WriteEmpty(w, http.StatusOK)
		return false
	default:
		w.Header().Set("Allow", allowedMethods)
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMethodNotAllowed, r.Method+" is not supported"))
		return false
	}
}
