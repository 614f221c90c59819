package metrics

import (
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveHTTPRequest("/", "GET", 200, time.Millisecond)
	r.ObserveExistDBOperation("get", ResultSuccess, time.Millisecond)
	r.ObserveNLPExtraction(ResultError, time.Millisecond)
	r.IncArchiveSnapshot(ResultSuccess)
	r.IncDocumentEvent("created")
}

func TestResultFor(t *testing.T) {
	assert.Equal(t, ResultSuccess, ResultFor(nil))
	assert.Equal(t, ResultError, ResultFor(errors.New("x")))
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveHTTPRequest("/manuscripts/documents", "POST", 201, 5*time.Millisecond)
	pr.ObserveHTTPRequest("/manuscripts/documents", "POST", 201, 5*time.Millisecond)
	pr.ObserveExistDBOperation("put", ResultSuccess, time.Millisecond)
	pr.IncDocumentEvent("created")

	require.Equal(t, float64(2), testutil.ToFloat64(
		pr.httpRequests.WithLabelValues("/manuscripts/documents", "POST", "201")))
	require.Equal(t, float64(1), testutil.ToFloat64(
		pr.existdbOps.WithLabelValues("put", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(
		pr.documentEvents.WithLabelValues("created")))
}
