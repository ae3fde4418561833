package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubecubic",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route and status",
	}, []string{"route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cubecubic",
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of HTTP request durations in seconds by route",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
	}, []string{"route"})
	mediaBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cubecubic",
		Name:      "media_bytes_served_total",
		Help:      "Total number of media bytes written to clients",
	})
	rangeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubecubic",
		Name:      "media_range_requests_total",
		Help:      "Media requests by outcome (full, partial, unsatisfiable)",
	}, []string{"outcome"})
	playbackEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubecubic",
		Name:      "playback_events_total",
		Help:      "Player notifications by event type",
	}, []string{"event"})
	adminEdits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubecubic",
		Name:      "admin_edits_total",
		Help:      "Admin catalog edits by operation and result",
	}, []string{"op", "result"})
	catalogLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubecubic",
		Name:      "catalog_loads_total",
		Help:      "Catalog loads by result",
	}, []string{"result"})

	albumsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cubecubic",
		Name:      "albums_total",
		Help:      "Current number of albums in the catalog",
	})
	tracksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cubecubic",
		Name:      "tracks_total",
		Help:      "Current number of tracks in the catalog",
	})
	dirtyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cubecubic",
		Name:      "catalog_dirty",
		Help:      "1 when the catalog has unsaved admin edits",
	})
	listenersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cubecubic",
		Name:      "listener_sessions",
		Help:      "Number of active listener sessions",
	})
)

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, mediaBytes, rangeRequests, playbackEvents,
			adminEdits, catalogLoads, albumsGauge, tracksGauge, dirtyGauge, listenersGauge)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveRequest(route, status string, d time.Duration) {
	httpRequests.WithLabelValues(route, status).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func AddMediaBytes(n int64)          { mediaBytes.Add(float64(n)) }
func IncRangeRequest(outcome string) { rangeRequests.WithLabelValues(outcome).Inc() }
func IncPlaybackEvent(event string)  { playbackEvents.WithLabelValues(event).Inc() }
func IncAdminEdit(op, result string) { adminEdits.WithLabelValues(op, result).Inc() }
func IncCatalogLoad(result string)   { catalogLoads.WithLabelValues(result).Inc() }

func SetCatalogSize(albums, tracks int) {
	albumsGauge.Set(float64(albums))
	tracksGauge.Set(float64(tracks))
}

func SetListeners(n int) { listenersGauge.Set(float64(n)) }

func SetDirty(dirty bool) {
	if dirty {
		dirtyGauge.Set(1)
		return
	}
	dirtyGauge.Set(0)
}
