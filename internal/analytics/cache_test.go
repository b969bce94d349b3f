package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
)

type memoryStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	m.ttls[key] = ttl
	return nil
}

func TestCachedSourceServesRepeatsFromStore(t *testing.T) {
	src := &stubSource{payload: types.RawPayload(`[{"id":7}]`)}
	store := newMemoryStore()
	reg := prometheus.NewRegistry()
	cm := metrics.NewCacheMetrics(reg)

	cached, err := NewCachedSource(src, store, CacheOptions{TTL: time.Minute, KeyPrefix: "sa", Logger: logger.Nop(), Metrics: cm})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		payload, err := cached.Fetch(context.Background(), testFilter())
		require.NoError(t, err)
		assert.Equal(t, `[{"id":7}]`, string(payload))
	}

	assert.Equal(t, 1, src.calls)
	require.Len(t, store.data, 1)
	for key, ttl := range store.ttls {
		assert.True(t, strings.HasPrefix(key, "sa:orders:orders:"))
		assert.Equal(t, time.Minute, ttl)
	}
	assert.Equal(t, float64(1), lookupCount(t, reg, metrics.CacheMiss))
	assert.Equal(t, float64(2), lookupCount(t, reg, metrics.CacheHit))
}

func TestCachedSourceKeysDifferPerFilter(t *testing.T) {
	src := &stubSource{payload: types.RawPayload(`[]`)}
	store := newMemoryStore()
	cached, err := NewCachedSource(src, store, CacheOptions{TTL: time.Minute})
	require.NoError(t, err)

	first := testFilter()
	second := testFilter()
	second.Page = 2
	keyA, keyB := "secret-key-one", "secret-key-two"
	third := testFilter()
	third.Key = &keyA
	fourth := testFilter()
	fourth.Key = &keyB

	for _, f := range []types.Filter{first, second, third, fourth} {
		_, err := cached.Fetch(context.Background(), f)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, src.calls)
	assert.Len(t, store.data, 4)
	for key := range store.data {
		assert.NotContains(t, key, "secret-key")
	}
}

func TestCachedSourceDoesNotStoreFailures(t *testing.T) {
	src := &stubSource{err: errors.New("boom")}
	store := newMemoryStore()
	cached, err := NewCachedSource(src, store, CacheOptions{TTL: time.Minute})
	require.NoError(t, err)

	_, err = cached.Fetch(context.Background(), testFilter())
	require.Error(t, err)
	assert.Empty(t, store.data)
}

func TestCachedSourceFallsThroughOnStoreErrors(t *testing.T) {
	src := &stubSource{payload: types.RawPayload(`[]`)}
	store := newMemoryStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	reg := prometheus.NewRegistry()
	cm := metrics.NewCacheMetrics(reg)

	cached, err := NewCachedSource(src, store, CacheOptions{TTL: time.Minute, Logger: logger.Nop(), Metrics: cm})
	require.NoError(t, err)

	payload, err := cached.Fetch(context.Background(), testFilter())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, float64(2), lookupCount(t, reg, metrics.CacheError))
}

func TestNewCachedSourceValidatesArguments(t *testing.T) {
	_, err := NewCachedSource(nil, newMemoryStore(), CacheOptions{TTL: time.Minute})
	assert.Error(t, err)
	_, err = NewCachedSource(&stubSource{}, nil, CacheOptions{TTL: time.Minute})
	assert.Error(t, err)
	_, err = NewCachedSource(&stubSource{}, newMemoryStore(), CacheOptions{})
	assert.Error(t, err)
}

func lookupCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "upstream_cache_lookups_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m.GetLabel(), "result", result) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, lp := range labels {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
