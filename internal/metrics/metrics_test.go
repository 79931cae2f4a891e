package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest_CountsErrorsByCode(t *testing.T) {
	before := testutil.ToFloat64(RequestErrorsTotal.WithLabelValues("test-endpoint", "405"))
	ObserveRequest("test-endpoint", 200, time.Now())
	ObserveRequest("test-endpoint", 405, time.Now())

	if got := testutil.ToFloat64(RequestErrorsTotal.WithLabelValues("test-endpoint", "405")); got != before+1 {
		t.Fatalf("expected one 405 error recorded, got %v", got-before)
	}
	if got := testutil.ToFloat64(RequestsTotal.WithLabelValues("test-endpoint")); got < 2 {
		t.Fatalf("expected at least two requests, got %v", got)
	}
}

func TestUpdateJobMetrics_FailureIncrements(t *testing.T) {
	before := testutil.ToFloat64(ScheduledJobFailuresTotal.WithLabelValues("test-job"))
	UpdateJobMetrics("test-job", time.Now(), nil)
	UpdateJobMetrics("test-job", time.Now(), errors.New("boom"))
	if got := testutil.ToFloat64(ScheduledJobFailuresTotal.WithLabelValues("test-job")); got != before+1 {
		t.Fatalf("expected one failure, got %v", got-before)
	}
	if testutil.ToFloat64(ScheduledJobLastRun.WithLabelValues("test-job")) == 0 {
		t.Fatalf("expected last run timestamp to be set")
	}
}
