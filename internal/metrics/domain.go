package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and chat Prometheus metrics.
var (
	DocumentsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyoracle",
			Name:      "documents_processed_total",
			Help:      "Total ingestion runs by outcome",
		},
		[]string{"outcome"}, // "processed" / "error" / "conflict"
	)

	ChunksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "policyoracle",
			Name:      "chunks_created_total",
			Help:      "Total chunks persisted by ingestion",
		},
	)

	ExtractFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "policyoracle",
			Name:      "extract_fallback_total",
			Help:      "Extractions that degraded to the ASCII-strip fallback",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "policyoracle",
			Name:      "ingest_duration_seconds",
			Help:      "Ingestion run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RetrievalHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "policyoracle",
			Name:      "retrieval_hits",
			Help:      "Matched chunks per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)

	UpstreamStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyoracle",
			Name:      "upstream_streams_total",
			Help:      "Total upstream completion streams by status",
		},
		[]string{"status"}, // "ok" / "rate_limited" / "quota" / "error"
	)

	RelayBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "policyoracle",
			Name:      "relay_bytes_total",
			Help:      "Total bytes forwarded from upstream streams",
		},
	)
)

// RegisterDomainMetrics registers ingestion and chat collectors.
// Called once from the composition root (no init()).
func RegisterDomainMetrics() {
	prometheus.MustRegister(
		DocumentsProcessedTotal,
		ChunksCreatedTotal,
		ExtractFallbackTotal,
		IngestDuration,
		RetrievalHits,
		UpstreamStreamsTotal,
		RelayBytesTotal,
	)
}
