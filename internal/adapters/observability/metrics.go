package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"restaurant_lives/internal/domain"
)

var (
	FeedRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lives", Name: "feed_runs_total", Help: "Feed runs by outcome."},
		[]string{"municipality", "status", "error"}, // status: ok|error; error: LabelErr
	)
	FeedRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lives", Name: "feed_run_duration_seconds",
			Help:    "Feed run duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"municipality"},
	)
	FeedRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "lives", Name: "feed_rows", Help: "Rows in the last published feed."},
		[]string{"municipality", "table"}, // table: businesses|inspections
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lives", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lives", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lives", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lives", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lives", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

// Serve exposes the default registry on addr in the background. Empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(InitRegistry()))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(FeedRuns, FeedRunDuration, FeedRows,
		HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveRun(municipality string, err error, dur time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FeedRuns.WithLabelValues(municipality, status, LabelErr(err)).Inc()
	FeedRunDuration.WithLabelValues(municipality).Observe(dur.Seconds())
}

func ObserveFeed(municipality string, businesses, inspections int) {
	FeedRows.WithLabelValues(municipality, "businesses").Set(float64(businesses))
	FeedRows.WithLabelValues(municipality, "inspections").Set(float64(inspections))
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// LabelErr buckets an error into a low-cardinality label value.
func LabelErr(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrMalformedAddress):
		return "malformed_address"
	case errors.Is(err, domain.ErrMissingIdentifier):
		return "missing_identifier"
	case errors.Is(err, domain.ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}
