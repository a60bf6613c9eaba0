package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_finder_refreshes_total",
		Help: "Total number of pipeline refreshes by trigger",
	}, []string{"reason"})
	RefreshDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_finder_refresh_duration_ms",
		Help:    "Pipeline refresh duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})
	LoadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parking_finder_load_failures_total",
		Help: "Total number of failed data loads",
	})
	FrameMarkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parking_finder_frame_markers",
		Help: "Number of map markers in the last published frame",
	})
	FrameCards = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parking_finder_frame_cards",
		Help: "Number of cards in the last published frame",
	})
	FrameVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parking_finder_frame_version",
		Help: "Version of the last published frame",
	})
	WebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parking_finder_websocket_clients",
		Help: "Connected websocket clients",
	})
	GeolocationFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parking_finder_geolocation_fallbacks_total",
		Help: "Total number of location lookups that fell back to the default location",
	})
)

func Register() {
	prometheus.MustRegister(RefreshesTotal, RefreshDurationMs, LoadFailuresTotal, FrameMarkers, FrameCards,
		FrameVersion, WebSocketClients, GeolocationFallbacksTotal)
}

func Handler() http.Handler { return promhttp.Handler() }
