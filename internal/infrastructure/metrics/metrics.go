package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "ai_nexus"
	subsystem = "chat_api"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served, open chat streams included",
		},
	)

	// Chat streams by terminal outcome: done, error or disconnected.
	ChatStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_streams_total",
			Help:      "Total chat streams by outcome",
		},
		[]string{"outcome"},
	)

	ChatStreamFragments = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_stream_fragments",
			Help:      "Number of delta frames written per chat stream",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	ChatFirstFragmentLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_first_fragment_seconds",
			Help:      "Time from request to first delta frame",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_calls_total",
			Help:      "Total MCP tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	ToolCatalogRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tool_catalog_refresh_total",
			Help:      "Tool catalog refreshes by status",
		},
		[]string{"status"},
	)

	SessionStoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_store_op_duration_seconds",
			Help:      "Agent session store operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"store", "op", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordStreamedRequest counts a request answered with a stream. Its duration is left to the
// chat stream metrics since it measures the answer length rather than server latency.
func RecordStreamedRequest(method, endpoint, status string) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// RecordChatStream records how a chat stream ended and how many fragments it carried.
func RecordChatStream(outcome string, fragments int) {
	ChatStreamsTotal.WithLabelValues(outcome).Inc()
	ChatStreamFragments.Observe(float64(fragments))
}

func RecordFirstFragment(latency time.Duration) {
	ChatFirstFragmentLatency.Observe(latency.Seconds())
}

// RecordToolCall records an MCP tool invocation
func RecordToolCall(toolName, status string, durationSec float64) {
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	ToolDuration.WithLabelValues(toolName).Observe(durationSec)
}

func RecordToolCatalogRefresh(status string) {
	ToolCatalogRefreshTotal.WithLabelValues(status).Inc()
}

// ObserveSessionStoreOp is meant to be deferred with the start time and the named error result.
func ObserveSessionStoreOp(store, op string, start time.Time, err *error) {
	status := "success"
	if err != nil && *err != nil {
		status = "error"
	}
	SessionStoreOpDuration.WithLabelValues(store, op, status).Observe(time.Since(start).Seconds())
}
