package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the service's collectors. It satisfies invoice.Recorder
// and sustainability.Observer.
type Registry struct {
	reg *prometheus.Registry

	ReportsCreated   prometheus.Counter
	ReportsDeleted   prometheus.Counter
	ItemsLocked      prometheus.Counter
	ItemsUnlocked    prometheus.Counter
	TxConflicts      *prometheus.CounterVec
	RecordsProcessed prometheus.Counter
	RecordsSkipped   prometheus.Counter
	ManifestsWritten prometheus.Counter
	ManifestVersions prometheus.Histogram
	RequestDuration  *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	m := &Registry{
		reg:            r,
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{Name: "reclaim_invoice_reports_created_total"}),
		ReportsDeleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "reclaim_invoice_reports_deleted_total"}),
		ItemsLocked:    prometheus.NewCounter(prometheus.CounterOpts{Name: "reclaim_items_locked_total"}),
		ItemsUnlocked:  prometheus.NewCounter(prometheus.CounterOpts{Name: "reclaim_items_unlocked_total"}),
		TxConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reclaim_tx_conflicts_total",
			Help: "Transactions rejected at commit because data they read changed.",
		}, []string{"op"}),
		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{Name: "reclaim_impact_records_processed_total"}),
		RecordsSkipped:   prometheus.NewCounter(prometheus.CounterOpts{Name: "reclaim_impact_records_skipped_total"}),
		ManifestsWritten: prometheus.NewCounter(prometheus.CounterOpts{Name: "reclaim_manifests_written_total"}),
		ManifestVersions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reclaim_manifest_versions",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reclaim_http_request_duration_seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	r.MustRegister(
		m.ReportsCreated, m.ReportsDeleted, m.ItemsLocked, m.ItemsUnlocked, m.TxConflicts,
		m.RecordsProcessed, m.RecordsSkipped, m.ManifestsWritten, m.ManifestVersions, m.RequestDuration,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Registry) ReportCreated(items int) {
	m.ReportsCreated.Inc()
	m.ItemsLocked.Add(float64(items))
}

func (m *Registry) ReportDeleted(items int) {
	m.ReportsDeleted.Inc()
	m.ItemsUnlocked.Add(float64(items))
}

func (m *Registry) TxConflict(op string) {
	m.TxConflicts.WithLabelValues(op).Inc()
}

func (m *Registry) Aggregated(processed, skipped int) {
	m.RecordsProcessed.Add(float64(processed))
	m.RecordsSkipped.Add(float64(skipped))
}

func (m *Registry) ManifestBuilt(versions int) {
	m.ManifestsWritten.Inc()
	m.ManifestVersions.Observe(float64(versions))
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware observes request latency labelled by chi route pattern.
func (m *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
