package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// CacheMetrics counts lookups against the upstream response cache.
type CacheMetrics struct {
	lookups *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_cache_lookups_total",
		Help: "Upstream response cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(lookups)
	return &CacheMetrics{lookups: lookups}
}

func (m *CacheMetrics) Inc(result string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(normalizeLabel(result)).Inc()
}
