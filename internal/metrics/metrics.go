// Package metrics exposes the collection server's prometheus metrics.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Makepad-fr/tada/internal/store"
)

// HTTP records per-route request counts and latencies.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP registers the request metrics on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tada_http_requests_total",
			Help: "HTTP requests handled, by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tada_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Observe records one finished request.
func (m *HTTP) Observe(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// StoreCollector reports how many todos the store holds, split by state.
type StoreCollector struct {
	store   store.Store
	timeout time.Duration

	todos *prometheus.Desc
	up    *prometheus.Desc
}

func NewStoreCollector(s store.Store) *StoreCollector {
	return &StoreCollector{
		store:   s,
		timeout: 5 * time.Second,

		todos: prometheus.NewDesc(
			"tada_todos",
			"Number of stored todos by state",
			[]string{"state"}, nil,
		),
		up: prometheus.NewDesc(
			"tada_store_up",
			"Whether the last store scrape succeeded",
			nil, nil,
		),
	}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.todos
	ch <- c.up
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	items, err := c.store.List(ctx, store.Query{})
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	var done, pending float64
	for _, it := range items {
		if it.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.todos, prometheus.GaugeValue, done, "done")
	ch <- prometheus.MustNewConstMetric(c.todos, prometheus.GaugeValue, pending, "pending")
}
