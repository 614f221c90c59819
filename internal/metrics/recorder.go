package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultError   ResultLabel = "error"
)

// Recorder defines observability hooks for HTTP traffic and downstream calls.
// Implementations may forward to Prometheus, OpenTelemetry, etc. NoopRecorder is
// the default so components never need nil checks.
type Recorder interface {
	ObserveHTTPRequest(route, method string, status int, d time.Duration)
	ObserveExistDBOperation(op string, result ResultLabel, d time.Duration)
	ObserveNLPExtraction(result ResultLabel, d time.Duration)
	IncArchiveSnapshot(result ResultLabel)
	IncDocumentEvent(action string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration)        {}
func (NoopRecorder) ObserveExistDBOperation(string, ResultLabel, time.Duration)   {}
func (NoopRecorder) ObserveNLPExtraction(ResultLabel, time.Duration)              {}
func (NoopRecorder) IncArchiveSnapshot(ResultLabel)                               {}
func (NoopRecorder) IncDocumentEvent(string)                                      {}

// ResultFor converts an error into a result label.
func ResultFor(err error) ResultLabel {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
