package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	statements prometheus.Counter
	cacheHits  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gentext",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gentext",
			Name:      "generation_duration_seconds",
			Help:      "Statement generation latency by generator kind.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"kind"}),
		statements: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gentext",
			Name:      "statements_generated_total",
			Help:      "False statements returned to callers.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gentext",
			Name:      "result_cache_hits_total",
			Help:      "Generation requests served from the result cache.",
		}),
	}
}
