package analytics

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
)

type stubSource struct {
	payload types.RawPayload
	err     error
	calls   int
	last    types.Filter
}

func (s *stubSource) Fetch(_ context.Context, filter types.Filter) (types.RawPayload, error) {
	s.calls++
	s.last = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

func testFilter() types.Filter {
	return types.Filter{
		Endpoint: "orders",
		DateFrom: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     1,
		Limit:    2,
	}
}

func TestNewServiceRequiresSource(t *testing.T) {
	_, err := NewService(nil, logger.Nop())
	require.Error(t, err)
}

func TestQueryReshapesSourcePayload(t *testing.T) {
	src := &stubSource{payload: types.RawPayload(`[{"id":1,"date":"2025-03-02"},{"id":2,"date":"2025-03-01"}]`)}
	svc, err := NewService(src, logger.Nop())
	require.NoError(t, err)

	filter := testFilter()
	resp, err := svc.Query(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, filter, src.last)
	require.Len(t, resp.Data, 2)
	assert.JSONEq(t, `{"id":1,"date":"2025-03-02"}`, string(resp.Data[0]))
	assert.Equal(t, types.PaginationInfo{CurrentPage: 1, LastPage: 1, Total: 2, PerPage: 2}, resp.Pagination)
}

func TestQueryPropagatesSourceErrors(t *testing.T) {
	srcErr := pkgerrors.Upstream(503, "maintenance")
	svc, err := NewService(&stubSource{err: srcErr}, nil)
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), testFilter())
	require.Error(t, err)
	assert.True(t, errors.Is(err, srcErr))
}

func TestQueryRejectsMalformedPayload(t *testing.T) {
	svc, err := NewService(&stubSource{payload: types.RawPayload(`"nope"`)}, logger.Nop())
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), testFilter())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))
}

type recordingFetcher struct {
	target *url.URL
}

func (f *recordingFetcher) Fetch(_ context.Context, target *url.URL) (types.RawPayload, error) {
	f.target = target
	return types.RawPayload(`[]`), nil
}

func TestUpstreamSourceBuildsURL(t *testing.T) {
	fetcher := &recordingFetcher{}
	src, err := NewUpstreamSource("http://upstream.test:6969", fetcher)
	require.NoError(t, err)

	key := "abc"
	filter := testFilter()
	filter.Key = &key

	payload, err := src.Fetch(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
	require.NotNil(t, fetcher.target)
	assert.Equal(t,
		"http://upstream.test:6969/api/orders?dateFrom=2025-03-01&dateTo=2025-03-31&page=1&limit=2&key=abc",
		fetcher.target.String())
}

func TestUpstreamSourceRejectsUnsafeEndpoint(t *testing.T) {
	fetcher := &recordingFetcher{}
	src, err := NewUpstreamSource("http://upstream.test", fetcher)
	require.NoError(t, err)

	filter := testFilter()
	filter.Endpoint = "../admin"
	_, err = src.Fetch(context.Background(), filter)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParameter))
	assert.Nil(t, fetcher.target)
}

func TestNewUpstreamSourceValidatesArguments(t *testing.T) {
	_, err := NewUpstreamSource("http://upstream.test", nil)
	assert.Error(t, err)
	_, err = NewUpstreamSource("", &recordingFetcher{})
	assert.Error(t, err)
}
