package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_transitions_total",
			Help: "Event lifecycle operations by action and result",
		},
		[]string{"action", "result"},
	)

	attendanceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_operations_total",
			Help: "Join/leave operations by result",
		},
		[]string{"operation", "result"},
	)

	attendanceRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_rollbacks_total",
			Help: "Attendance mutations reverted after a store failure",
		},
		[]string{"operation", "result"},
	)

	feedBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_feed_build_duration_seconds",
			Help:    "Time spent building the public event feed",
			Buckets: prometheus.DefBuckets,
		},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Result labels shared by the counters.
const (
	ResultOK     = "ok"
	ResultNoop   = "noop"
	ResultDenied = "denied"
	ResultError  = "error"
)

func TrackTransition(action, result string) {
	eventTransitions.WithLabelValues(action, result).Inc()
}

func TrackAttendance(operation, result string) {
	attendanceOperations.WithLabelValues(operation, result).Inc()
}

func TrackRollback(operation string, ok bool) {
	result := ResultOK
	if !ok {
		result = ResultError
	}
	attendanceRollbacks.WithLabelValues(operation, result).Inc()
}

func ObserveFeedBuild(d time.Duration) {
	feedBuildDuration.Observe(d.Seconds())
}

func ObserveHTTP(method, route, status string, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
