package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
)

func testFilter() types.Filter {
	return types.Filter{
		Endpoint: "orders",
		DateFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		Page:     2,
		Limit:    50,
	}
}

func TestBuildURLOrdersParameters(t *testing.T) {
	u, err := BuildURL(testFilter(), "http://analytics.test:6969")
	require.NoError(t, err)
	assert.Equal(t, "http://analytics.test:6969/api/orders?dateFrom=2025-01-01&dateTo=2025-01-31&page=2&limit=50", u.String())
}

func TestBuildURLAppendsKeyLast(t *testing.T) {
	f := testFilter()
	key := "abc&def=1"
	f.Key = &key

	u, err := BuildURL(f, "http://analytics.test/")
	require.NoError(t, err)
	assert.Equal(t, "http://analytics.test/api/orders?dateFrom=2025-01-01&dateTo=2025-01-31&page=2&limit=50&key=abc%26def%3D1", u.String())
	assert.Equal(t, key, u.Query().Get("key"))
}

func TestBuildURLOmitsAbsentKey(t *testing.T) {
	u, err := BuildURL(testFilter(), "http://analytics.test")
	require.NoError(t, err)
	assert.False(t, u.Query().Has("key"))
	assert.NotContains(t, u.RawQuery, "key=")
}

func TestBuildURLKeepsBasePath(t *testing.T) {
	u, err := BuildURL(testFilter(), "https://gateway.test/analytics/")
	require.NoError(t, err)
	assert.Equal(t, "/analytics/api/orders", u.Path)
}

func TestBuildURLRejectsUnsafeEndpoints(t *testing.T) {
	for _, endpoint := range []string{"", "../secrets", "orders?x=1", "orders/1", "orders%2F1", "заказы", "a b"} {
		f := testFilter()
		f.Endpoint = endpoint
		_, err := BuildURL(f, "http://analytics.test")
		require.Error(t, err, "endpoint=%q", endpoint)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParameter), "endpoint=%q", endpoint)
	}
}

func TestBuildURLRejectsRelativeBase(t *testing.T) {
	_, err := BuildURL(testFilter(), "/relative")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestRedactedMasksKey(t *testing.T) {
	f := testFilter()
	key := "top-secret"
	f.Key = &key
	u, err := BuildURL(f, "http://analytics.test")
	require.NoError(t, err)

	out := Redacted(u)
	assert.NotContains(t, out, key)
	assert.Contains(t, out, "key=REDACTED")
	assert.Contains(t, out, "limit=50")
}
