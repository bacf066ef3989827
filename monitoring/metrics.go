package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_operations_total",
			Help: "Total ticket service operations by outcome",
		},
		[]string{"operation", "status"},
	)

	qrRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_rotations_total",
			Help: "Total QR value rotations",
		},
	)

	pendingTransfers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_transfers_total",
			Help: "Current number of tickets with an outstanding transfer code",
		},
	)

	activeWatchers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_ticket_watchers_total",
			Help: "Current number of tickets with a scheduled QR rotation",
		},
	)

	loginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "login_duration_seconds",
			Help:    "Duration of login attempts",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)
)

// TrackOperation records one service operation and its outcome
// ("success" or "error").
func TrackOperation(operation, status string) {
	ticketOperations.WithLabelValues(operation, status).Inc()
}

func TrackRotation() {
	qrRotations.Inc()
}

func AddPendingTransfers(delta float64) {
	pendingTransfers.Add(delta)
}

func SetActiveWatchers(n float64) {
	activeWatchers.Set(n)
}

func TrackLogin(duration time.Duration) {
	loginDuration.Observe(duration.Seconds())
}

// Serve exposes the metrics endpoint on its own port. Blocks, so run it
// in a goroutine.
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logrus.WithError(err).Error("metrics server stopped")
	}
}
