// Package metrics exposes prometheus instrumentation for the journey
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JourneyMetrics counts lookups and cache traffic and times upstream calls.
type JourneyMetrics struct {
	lookupsTotal    *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

func NewJourneyMetrics(reg prometheus.Registerer) *JourneyMetrics {
	m := &JourneyMetrics{
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadinsights",
			Subsystem: "journey",
			Name:      "lookups_total",
			Help:      "Total lead journey lookups",
		}, []string{"outcome"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadinsights",
			Subsystem: "journey",
			Name:      "cache_total",
			Help:      "Raw-input cache hits and misses",
		}, []string{"result"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadinsights",
			Subsystem: "journey",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of upstream API fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lookupsTotal, m.cacheTotal, m.upstreamLatency)
	return m
}

// ObserveLookup records one finished lookup. outcome is one of found,
// not_found, error.
func (m *JourneyMetrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(outcome).Inc()
}

func (m *JourneyMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

func (m *JourneyMetrics) ObserveUpstream(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(source).Observe(d.Seconds())
}
