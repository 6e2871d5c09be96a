package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	InferenceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "doculens",
			Name:      "inference_requests_total",
			Help:      "Total number of inference calls",
		},
		[]string{"provider", "model", "outcome"},
	)

	InferenceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "doculens",
			Name:      "inference_request_duration_seconds",
			Help:      "Inference call duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 240},
		},
		[]string{"provider", "model"},
	)

	PagesParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "doculens",
			Name:      "pages_parsed_total",
			Help:      "Pages processed by parse status",
		},
		[]string{"parse_status"},
	)

	DocumentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "doculens",
			Name:      "document_processing_seconds",
			Help:      "End-to-end document processing duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "doculens",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registered bool

// Register registers pipeline metrics with the default registry. Must be
// called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(InferenceRequestsTotal)
	prometheus.MustRegister(InferenceRequestDuration)
	prometheus.MustRegister(PagesParsedTotal)
	prometheus.MustRegister(DocumentDuration)
	prometheus.MustRegister(ResultCacheTotal)
	registered = true
}
