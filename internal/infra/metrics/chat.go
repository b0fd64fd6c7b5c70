package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		chatTurns,
		chatUploads,
		chatExtractionFailures,
		sseSubscribers,
	)
}

var (
	chatTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Conversation turns by outcome (ok|error).",
		},
		[]string{"outcome"},
	)

	chatUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_document_uploads_total",
			Help: "Document uploads by outcome (ok|rejected|failed).",
		},
		[]string{"outcome"},
	)

	chatExtractionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_extraction_failures_total",
			Help: "Failed document extraction calls.",
		},
	)

	sseSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sse_subscribers",
			Help: "Currently connected SSE clients.",
		},
	)
)

func Turn(outcome string) { chatTurns.WithLabelValues(norm(outcome)).Inc() }

func Upload(outcome string) { chatUploads.WithLabelValues(norm(outcome)).Inc() }

func ExtractionFailed() { chatExtractionFailures.Inc() }

func SSESubscribers(delta int) { sseSubscribers.Add(float64(delta)) }
