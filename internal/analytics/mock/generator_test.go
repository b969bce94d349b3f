package mock

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
)

func filter(page, limit int) types.Filter {
	return types.Filter{
		Endpoint: "orders",
		DateFrom: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     page,
		Limit:    limit,
	}
}

func TestFetchReturnsBareArrayOfLimitRows(t *testing.T) {
	g := NewGenerator(42, 50)

	payload, err := g.Fetch(context.Background(), filter(1, 20))
	require.NoError(t, err)
	assert.Equal(t, types.ShapeArray, payload.Shape())

	var orders []types.Order
	require.NoError(t, json.Unmarshal(payload, &orders))
	assert.Len(t, orders, 20)
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a, err := NewGenerator(7, 100).Fetch(context.Background(), filter(2, 10))
	require.NoError(t, err)
	b, err := NewGenerator(7, 100).Fetch(context.Background(), filter(2, 10))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	c, err := NewGenerator(8, 100).Fetch(context.Background(), filter(2, 10))
	require.NoError(t, err)
	assert.NotEqual(t, string(a), string(c))
}

func TestPagesDoNotOverlapAndStopAtDatasetEnd(t *testing.T) {
	g := NewGenerator(42, 25)

	first := g.Page(filter(1, 10))
	second := g.Page(filter(2, 10))
	third := g.Page(filter(3, 10))
	beyond := g.Page(filter(4, 10))

	require.Len(t, first, 10)
	require.Len(t, second, 10)
	require.Len(t, third, 5)
	assert.Empty(t, beyond)
	assert.NotNil(t, beyond)

	assert.Equal(t, "1", string(first[0].ID))
	assert.Equal(t, "11", string(second[0].ID))
	assert.Equal(t, "25", string(third[4].ID))
}

func TestOrdersAreNewestFirstWithinRange(t *testing.T) {
	f := filter(1, 200)
	orders := NewGenerator(42, 200).Page(f)
	require.Len(t, orders, 200)

	lower := f.DateFrom
	upper := f.DateTo.Add(24 * time.Hour)
	var prev time.Time
	for i, o := range orders {
		ts, err := time.Parse(time.RFC3339, o.Date)
		require.NoError(t, err)
		assert.False(t, ts.Before(lower), "row %d before range: %s", i, o.Date)
		assert.True(t, ts.Before(upper), "row %d after range: %s", i, o.Date)
		if i > 0 {
			assert.False(t, ts.After(prev), "row %d out of order", i)
		}
		prev = ts
	}
}

func TestOrderFieldsAreConsistent(t *testing.T) {
	for _, o := range NewGenerator(3, 40).Page(filter(1, 40)) {
		total, err := o.TotalPrice.Int64()
		require.NoError(t, err)
		disc, err := o.PriceWithDisc.Int64()
		require.NoError(t, err)
		qty, err := o.Quantity.Int64()
		require.NoError(t, err)
		pct, err := o.DiscountPercent.Int64()
		require.NoError(t, err)

		assert.GreaterOrEqual(t, total, int64(1000))
		assert.Less(t, total, int64(16000))
		assert.LessOrEqual(t, disc, total)
		assert.Greater(t, disc, total-500)
		assert.GreaterOrEqual(t, pct, int64(0))
		assert.LessOrEqual(t, pct, int64(50))
		assert.InDelta(t, float64(total-disc)*100/float64(total), float64(pct), 0.5)
		assert.GreaterOrEqual(t, qty, int64(1))
		assert.LessOrEqual(t, qty, int64(5))
		assert.NotEmpty(t, o.WarehouseName)
		assert.NotEmpty(t, o.Brand)
		assert.NotEmpty(t, o.Subject)
		assert.NotEmpty(t, o.Category)
	}
}

func TestFetchRejectsUnsafeEndpoint(t *testing.T) {
	f := filter(1, 5)
	f.Endpoint = "../secrets"
	_, err := NewGenerator(1, 10).Fetch(context.Background(), f)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParameter))
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGenerator(1, 10).Fetch(ctx, filter(1, 5))
	require.Error(t, err)
}

func TestHugePageIsEmpty(t *testing.T) {
	payload, err := NewGenerator(1, 500).Fetch(context.Background(), filter(math.MaxInt/2, 1000))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(payload))
}
