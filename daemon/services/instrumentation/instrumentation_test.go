package instrumentation

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRun_Success(t *testing.T) {
	r := NewRegistry()
	r.ObserveRun("cpu", 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(r.collectorUp.WithLabelValues("cpu")); got != 1 {
		t.Fatalf("collectorUp = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.collectFailures.WithLabelValues("cpu")); got != 0 {
		t.Fatalf("collectFailures = %v, want 0", got)
	}
}

func TestObserveRun_Failure(t *testing.T) {
	r := NewRegistry()
	r.ObserveRun("memory", 5*time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(r.collectorUp.WithLabelValues("memory")); got != 0 {
		t.Fatalf("collectorUp = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.collectFailures.WithLabelValues("memory")); got != 1 {
		t.Fatalf("collectFailures = %v, want 1", got)
	}
}

func TestGatherer(t *testing.T) {
	r := NewRegistry()
	r.ObserveRun("disk", time.Millisecond, nil)

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one metric family")
	}
}
