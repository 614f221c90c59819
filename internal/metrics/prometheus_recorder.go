package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	httpRequests     *prom.CounterVec
	httpDuration     *prom.HistogramVec
	existdbOps       *prom.CounterVec
	existdbDuration  *prom.HistogramVec
	nlpExtractions   *prom.CounterVec
	nlpDuration      prom.Histogram
	archiveSnapshots *prom.CounterVec
	documentEvents   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on the registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "orchestrator",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "orchestrator",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		existdbOps: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "orchestrator",
			Name:      "existdb_operations_total",
			Help:      "eXist-db REST operations by operation and result",
		}, []string{"op", "result"}),
		existdbDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "orchestrator",
			Name:      "existdb_operation_duration_seconds",
			Help:      "eXist-db REST operation latency by operation",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
		nlpExtractions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "orchestrator",
			Name:      "nlp_extractions_total",
			Help:      "NLP entity extraction calls by result",
		}, []string{"result"}),
		nlpDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "orchestrator",
			Name:      "nlp_extraction_duration_seconds",
			Help:      "NLP entity extraction latency",
			Buckets:   prom.DefBuckets,
		}),
		archiveSnapshots: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "orchestrator",
			Name:      "archive_snapshots_total",
			Help:      "Archive snapshot runs by result",
		}, []string{"result"}),
		documentEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "orchestrator",
			Name:      "document_events_total",
			Help:      "Document lifecycle events by action",
		}, []string{"action"}),
	}
	reg.MustRegister(
		pr.httpRequests, pr.httpDuration,
		pr.existdbOps, pr.existdbDuration,
		pr.nlpExtractions, pr.nlpDuration,
		pr.archiveSnapshots, pr.documentEvents,
	)
	return pr
}

func (pr *PrometheusRecorder) ObserveHTTPRequest(route, method string, status int, d time.Duration) {
	pr.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	pr.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveExistDBOperation(op string, result ResultLabel, d time.Duration) {
	pr.existdbOps.WithLabelValues(op, string(result)).Inc()
	pr.existdbDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveNLPExtraction(result ResultLabel, d time.Duration) {
	pr.nlpExtractions.WithLabelValues(string(result)).Inc()
	pr.nlpDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncArchiveSnapshot(result ResultLabel) {
	pr.archiveSnapshots.WithLabelValues(string(result)).Inc()
}

func (pr *PrometheusRecorder) IncDocumentEvent(action string) {
	pr.documentEvents.WithLabelValues(action).Inc()
}
