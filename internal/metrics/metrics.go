package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_upstream_requests_total",
		Help: "Calls to the remote endpoint grouped by action and outcome",
	}, []string{"action", "outcome"})

	fallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_fallback_total",
		Help: "Responses served from substitute data grouped by action",
	}, []string{"action"})

	heartbeatTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_heartbeat_total",
		Help: "Heartbeat probes grouped by outcome",
	}, []string{"outcome"})

	chatStreamTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_chat_streams_total",
		Help: "Chat sends grouped by how the stream settled",
	}, []string{"outcome"})

	chatChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "intake_chat_stream_chunks",
		Help:    "Number of chunks received per chat send",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})

	draftTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_draft_generations_total",
		Help: "Draft generation requests grouped by outcome",
	}, []string{"outcome"})

	archiveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intake_recovery_archive_failures_total",
		Help: "Successful submissions that could not be archived to the recovery store",
	})
)

// ObserveUpstream records the outcome of one call to the remote endpoint.
// outcome is "success", "application_error" or a diagnostic cause name.
func ObserveUpstream(action, outcome string) {
	upstreamTotal.WithLabelValues(action, outcome).Inc()
}

func ObserveFallback(action string) {
	fallbackTotal.WithLabelValues(action).Inc()
}

func ObserveHeartbeat(outcome string) {
	heartbeatTotal.WithLabelValues(outcome).Inc()
}

// ObserveChatStream records a settled chat send.
func ObserveChatStream(failed bool, chunks int) {
	if failed {
		chatStreamTotal.WithLabelValues("failed").Inc()
	} else {
		chatStreamTotal.WithLabelValues("completed").Inc()
	}
	chatChunks.Observe(float64(chunks))
}

func ObserveDraft(success bool) {
	if success {
		draftTotal.WithLabelValues("success").Inc()
	} else {
		draftTotal.WithLabelValues("failed").Inc()
	}
}

func ObserveArchiveFailure() {
	archiveFailures.Inc()
}
