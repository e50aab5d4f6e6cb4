package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "topicdex"

// Analysis pipeline Prometheus metrics.
var (
	OracleOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_operations_total",
			Help:      "Total clustering oracle operations",
		},
		[]string{"operation", "status"},
	)

	OracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_duration_seconds",
			Help:      "Clustering oracle operation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	AnalysisDocuments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_documents",
			Help:      "Documents per analysis request",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		},
	)

	AnalysisTopics = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_topics",
			Help:      "Topics found per analysis",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
		},
	)

	AnalysisOutlierRatio = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_outlier_ratio",
			Help:      "Share of documents left as outliers",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	LabelingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labeling_requests_total",
			Help:      "Total topic labeling requests",
		},
		[]string{"model", "status"},
	)

	ModelStoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_store_operations_total",
			Help:      "Model snapshot store operations",
		},
		[]string{"driver", "operation", "status"},
	)
)

var analysisMetricsRegistered bool

// RegisterAnalysisMetrics registers the analysis pipeline metrics. Must be called once from main.
func RegisterAnalysisMetrics() {
	if analysisMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		OracleOperationsTotal,
		OracleDuration,
		AnalysisDocuments,
		AnalysisTopics,
		AnalysisOutlierRatio,
		LabelingRequestsTotal,
		ModelStoreOperationsTotal,
	)
	analysisMetricsRegistered = true
}

// Status maps an error to the status label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
