package reshape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/pagination"
)

// Reshape converts an upstream payload into the stable client contract.
//
// A bare array is wrapped with pagination synthesized from the filter. An
// envelope keeps whatever pagination the upstream sent and only synthesizes
// the fields it left out. Rows are kept in upstream order and never re-sliced.
func Reshape(raw types.RawPayload, filter types.Filter) (*types.ProxyResponse, error) {
	switch raw.Shape() {
	case types.ShapeArray:
		orders, err := decodeOrders(json.RawMessage(raw))
		if err != nil {
			return nil, err
		}
		return &types.ProxyResponse{
			Data:       orders,
			Pagination: Synthesize(len(orders), filter),
		}, nil
	case types.ShapeObject:
		return reshapeEnvelope(raw, filter)
	default:
		return nil, malformed("expected a JSON array or object")
	}
}

// Synthesize builds pagination for rows the upstream returned without metadata.
// last_page is raised to current_page when a later page was requested, so
// current_page <= last_page always holds.
func Synthesize(total int, filter types.Filter) types.PaginationInfo {
	return types.PaginationInfo{
		CurrentPage: filter.Page,
		LastPage:    max(pagination.LastPage(total, filter.Limit), filter.Page),
		Total:       total,
		PerPage:     filter.Limit,
	}
}

func reshapeEnvelope(raw types.RawPayload, filter types.Filter) (*types.ProxyResponse, error) {
	var env types.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed("envelope could not be decoded")
	}

	orders, err := decodeOrders(env.Data)
	if err != nil {
		return nil, err
	}

	partial := env.Pagination
	if partial == nil {
		partial = env.Meta
	}
	info, err := merge(partial, len(orders), filter)
	if err != nil {
		return nil, err
	}
	return &types.ProxyResponse{Data: orders, Pagination: info}, nil
}

// decodeOrders splits data into its rows without interpreting them. Each row
// only has to be a JSON object; its fields pass through untouched.
func decodeOrders(data json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []json.RawMessage{}, nil
	}
	if trimmed[0] != '[' {
		return nil, malformed("data must be an array")
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, malformed("orders could not be decoded")
	}
	for i, row := range rows {
		if types.RawPayload(row).Shape() != types.ShapeObject {
			return nil, malformed(fmt.Sprintf("order %d must be an object", i))
		}
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return rows, nil
}

// merge resolves each pagination field independently. Missing fields are
// synthesized from the resolved values of the others.
func merge(partial *types.PartialPagination, rows int, filter types.Filter) (types.PaginationInfo, error) {
	if partial == nil {
		return Synthesize(rows, filter), nil
	}

	current, hasCurrent, err := field("current_page", partial.CurrentPage)
	if err != nil {
		return types.PaginationInfo{}, err
	}
	perPage, hasPerPage, err := field("per_page", partial.PerPage)
	if err != nil {
		return types.PaginationInfo{}, err
	}
	total, hasTotal, err := field("total", partial.Total)
	if err != nil {
		return types.PaginationInfo{}, err
	}
	last, hasLast, err := field("last_page", partial.LastPage)
	if err != nil {
		return types.PaginationInfo{}, err
	}

	if !hasCurrent {
		current = filter.Page
	}
	if !hasPerPage {
		perPage = filter.Limit
	}
	if !hasTotal {
		total = rows
	}
	if !hasLast {
		last = max(pagination.LastPage(total, perPage), current)
	}

	return types.PaginationInfo{
		CurrentPage: current,
		LastPage:    last,
		Total:       total,
		PerPage:     perPage,
	}, nil
}

func field(name string, n *json.Number) (int, bool, error) {
	if n == nil {
		return 0, false, nil
	}
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return 0, false, malformed(fmt.Sprintf("pagination.%s must not be negative", name))
		}
		return int(v), true, nil
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false, malformed(fmt.Sprintf("pagination.%s must be a non-negative integer", name))
	}
	return int(f), true, nil
}

func malformed(reason string) error {
	return pkgerrors.Upstream(http.StatusOK, "unexpected upstream payload: "+reason)
}
