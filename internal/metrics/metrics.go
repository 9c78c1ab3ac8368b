package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics содержит счётчики сервиса и собственный реестр.
type Metrics struct {
	Registry       *prometheus.Registry
	FeedsRendered  *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	FeedsSaved     *prometheus.CounterVec
	SaveErrors     *prometheus.CounterVec
	EntriesCreated *prometheus.CounterVec
}

// New регистрирует метрики в новом реестре.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FeedsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feeds_rendered_total",
			Help: "Number of feeds rendered over HTTP.",
		}, []string{"channel", "format"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feed_render_duration_seconds",
			Help:    "Time spent building and rendering a feed.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
		FeedsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feeds_saved_total",
			Help: "Number of feeds written to disk.",
		}, []string{"channel"}),
		SaveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_save_errors_total",
			Help: "Number of failed feed builds or writes.",
		}, []string{"channel"}),
		EntriesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entries_created_total",
			Help: "Number of entries stored through the API.",
		}, []string{"channel"}),
	}

	m.Registry.MustRegister(
		m.FeedsRendered,
		m.RenderDuration,
		m.FeedsSaved,
		m.SaveErrors,
		m.EntriesCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRender учитывает отданную ленту и время её сборки.
func (m *Metrics) ObserveRender(channel, format string, started time.Time) {
	m.FeedsRendered.WithLabelValues(channel, format).Inc()
	m.RenderDuration.WithLabelValues(format).Observe(time.Since(started).Seconds())
}

// Handler отдаёт метрики в текстовом формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
