package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpRequestsTotal counts requests by route template, method and status code
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comparaprecios_http_requests_total",
	Help: "Total number of HTTP requests by route, method and code.",
}, []string{"route", "method", "code"})

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "comparaprecios_http_request_duration_seconds",
	Help:    "HTTP request latency by route and method.",
	Buckets: prometheus.DefBuckets,
}, []string{"route", "method"})

var rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "comparaprecios_http_rate_limited_total",
	Help: "Requests rejected by the per-IP rate limiter.",
})
