// Package mock generates deterministic order data for demos and local
// development without an upstream provider.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/pagination"
)

// DefaultRows is the dataset size used when none is configured.
const DefaultRows = 500

var (
	warehouses = []string{"Коледино", "Подольск", "Электросталь", "Казань", "Краснодар", "Новосибирск"}
	brands     = []string{"Nordic", "Atlas", "Lumen", "Vesta", "Orion"}
	catalog    = []struct{ category, subject string }{
		{"Одежда", "Футболки"},
		{"Одежда", "Джинсы"},
		{"Обувь", "Кроссовки"},
		{"Дом", "Посуда"},
		{"Электроника", "Наушники"},
	}
)

// Generator serves a fixed-size synthetic dataset for any filter. Rows are
// derived from the seed, the endpoint and the row index, so the same filter
// always yields the same payload and pages never overlap.
type Generator struct {
	seed uint64
	rows int
}

// NewGenerator builds a generator with rows orders per endpoint and range.
func NewGenerator(seed int64, rows int) *Generator {
	if rows < 0 {
		rows = DefaultRows
	}
	return &Generator{seed: uint64(seed), rows: rows}
}

// Fetch returns the filter's page as a bare JSON array, newest first.
func (g *Generator) Fetch(ctx context.Context, filter types.Filter) (types.RawPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Transport(err)
	}
	if !types.ValidEndpoint(filter.Endpoint) {
		return nil, pkgerrors.InvalidParameter("endpoint must contain only letters, digits, '-' or '_'")
	}

	orders := g.Page(filter)
	body, err := json.Marshal(orders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode mock orders")
	}
	return types.RawPayload(body), nil
}

// Page generates the rows on the filter's page.
func (g *Generator) Page(filter types.Filter) []types.Order {
	start, end := pagination.Window(filter.Page, filter.Limit, g.rows)
	if start >= end {
		return []types.Order{}
	}

	stream := g.streamFor(filter)
	orders := make([]types.Order, 0, end-start)
	for i := start; i < end; i++ {
		orders = append(orders, g.order(stream, filter, i))
	}
	return orders
}

func (g *Generator) streamFor(filter types.Filter) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", filter.Endpoint,
		filter.DateFrom.Format(types.DateLayout), filter.DateTo.Format(types.DateLayout))
	return h.Sum64()
}

func (g *Generator) order(stream uint64, filter types.Filter, index int) types.Order {
	r := rand.New(rand.NewPCG(g.seed^stream, uint64(index)))

	totalPrice := decimal.NewFromInt(int64(r.IntN(15000) + 1000))
	discount := decimal.NewFromInt(int64(r.IntN(500)))
	percent := discount.Mul(decimal.NewFromInt(100)).Div(totalPrice).Round(0).IntPart()
	product := catalog[r.IntN(len(catalog))]

	return types.Order{
		ID:              json.RawMessage(strconv.Itoa(index + 1)),
		Date:            g.timestamp(filter, index).Format(time.RFC3339),
		TotalPrice:      json.Number(totalPrice.String()),
		PriceWithDisc:   json.Number(totalPrice.Sub(discount).String()),
		DiscountPercent: json.Number(strconv.FormatInt(percent, 10)),
		IsCancel:        r.Float64() > 0.9,
		Quantity:        json.Number(strconv.Itoa(r.IntN(5) + 1)),
		NmID:            json.Number(strconv.Itoa(100000 + r.IntN(900000))),
		WarehouseName:   warehouses[r.IntN(len(warehouses))],
		Subject:         product.subject,
		Brand:           brands[r.IntN(len(brands))],
		Category:        product.category,
	}
}

// timestamp spreads the dataset evenly across the filter's range, walking
// backwards from the end of dateTo so row order is date-descending.
func (g *Generator) timestamp(filter types.Filter, index int) time.Time {
	end := filter.DateTo.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second)
	start := filter.DateFrom.UTC().Truncate(24 * time.Hour)
	span := end.Sub(start)
	if span <= 0 || g.rows == 0 {
		return end
	}
	step := span / time.Duration(g.rows)
	return end.Add(-step * time.Duration(index)).Truncate(time.Second)
}
