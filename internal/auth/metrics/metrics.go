// Package metrics exposes the service's prometheus collectors. Every method
// is safe on a nil *Metrics so services can run without instrumentation.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grimoire"

// Issue reasons for the tokens_issued counter.
const (
	ReasonRegister = "register"
	ReasonLogin    = "login"
	ReasonRefresh  = "refresh"
)

type Metrics struct {
	reg *prometheus.Registry

	issued        *prometheus.CounterVec
	rotations     prometheus.Counter
	reuseRejected prometheus.Counter
	logouts       prometheus.Counter
	logoutAll     prometheus.Counter
	pruned        prometheus.Counter
	pruneErrors   prometheus.Counter
	pruneDuration prometheus.Histogram
	httpDuration  *prometheus.HistogramVec
}

// New builds a Metrics on its own registry, with the Go runtime and process
// collectors attached.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		issued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Token pairs issued, by reason.",
		}, []string{"reason"}),
		rotations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_rotations_total",
			Help:      "Refresh tokens successfully rotated.",
		}),
		reuseRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_reuse_rejected_total",
			Help:      "Refresh attempts rejected because the record was no longer active.",
		}),
		logouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Single-session logouts.",
		}),
		logoutAll: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logout_all_revoked_total",
			Help:      "Refresh tokens revoked by logout-all.",
		}),
		pruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tokens_pruned_total",
			Help:      "Expired refresh records deleted by housekeeping.",
		}),
		pruneErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prune_errors_total",
			Help:      "Housekeeping sweeps that failed.",
		}),
		pruneDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prune_duration_seconds",
			Help:      "Duration of housekeeping sweeps.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
}

// Registry is exposed for tests and for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) TokensIssued(reason string) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(reason).Inc()
}

func (m *Metrics) RotationSucceeded() {
	if m == nil {
		return
	}
	m.rotations.Inc()
}

func (m *Metrics) ReuseRejected() {
	if m == nil {
		return
	}
	m.reuseRejected.Inc()
}

func (m *Metrics) LoggedOut() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

func (m *Metrics) LoggedOutAll(revoked int64) {
	if m == nil {
		return
	}
	m.logoutAll.Add(float64(revoked))
}

// Pruned records one housekeeping sweep.
func (m *Metrics) Pruned(deleted int64, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.pruneDuration.Observe(took.Seconds())
	if err != nil {
		m.pruneErrors.Inc()
		return
	}
	m.pruned.Add(float64(deleted))
}

// Instrument wraps a handler registered under route.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.httpDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

// WatchTokenStats registers gauges that read the revocation store on every
// scrape.
func (m *Metrics) WatchTokenStats(logger *slog.Logger, stats func(context.Context) (domain.RefreshTokenStats, error)) {
	if m == nil {
		return
	}
	m.reg.MustRegister(&tokenStatsCollector{logger: logger, stats: stats})
}

var (
	descTotal = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "refresh_tokens", "stored"),
		"Refresh records currently stored.", nil, nil)
	descActive = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "refresh_tokens", "active"),
		"Refresh records that are neither revoked nor expired.", nil, nil)
	descRevoked = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "refresh_tokens", "revoked"),
		"Refresh records that are revoked and not yet pruned.", nil, nil)
)

type tokenStatsCollector struct {
	logger *slog.Logger
	stats  func(context.Context) (domain.RefreshTokenStats, error)
}

func (c *tokenStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descTotal
	ch <- descActive
	ch <- descRevoked
}

func (c *tokenStatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := c.stats(ctx)
	if err != nil {
		c.logger.Error("failed to collect refresh token stats", "err", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(descTotal, prometheus.GaugeValue, float64(s.Total))
	ch <- prometheus.MustNewConstMetric(descActive, prometheus.GaugeValue, float64(s.Active))
	ch <- prometheus.MustNewConstMetric(descRevoked, prometheus.GaugeValue, float64(s.Revoked))
}

type statusWriter struct {
	http.ResponseWriter

	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
