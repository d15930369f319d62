package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetrics_RegisterAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetrics: %v", err)
	}

	m.RecordValidation("valid", 3)
	m.RecordValidation("non_neutral_charge", 1)
	m.RecordBaseline(1.5, false)
	m.RecordBaseline(0, true)
	m.RecordInference("multitask_delta", 32, 0.02)
	m.RecordPredict("delta", 4, 2.0)
	m.RecordWeightResolve("multitask_delta", false)
	m.RecordWeightResolve("multitask_delta", true)

	pm := m.(*promMetrics)
	if got := testutil.ToFloat64(pm.validations.WithLabelValues("valid")); got != 3 {
		t.Errorf("valid counter = %v, want 3", got)
	}
	if got := testutil.ToFloat64(pm.validations.WithLabelValues("non_neutral_charge")); got != 1 {
		t.Errorf("charge counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pm.baselineCache.WithLabelValues("hit")); got != 1 {
		t.Errorf("baseline hit counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pm.baselineCache.WithLabelValues("miss")); got != 1 {
		t.Errorf("baseline miss counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pm.weightLookups.WithLabelValues("multitask_delta", "hit")); got != 1 {
		t.Errorf("weight hit counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pm.weightLookups.WithLabelValues("multitask_delta", "miss")); got != 1 {
		t.Errorf("weight miss counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pm.molecules.WithLabelValues("delta")); got != 4 {
		t.Errorf("molecules counter = %v, want 4", got)
	}
	if got := testutil.CollectAndCount(pm.inferenceBatch); got != 1 {
		t.Errorf("batch-size histogram series = %d, want 1", got)
	}
}

func TestPrometheusMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetrics(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetrics(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestNoopMetrics_Safe(t *testing.T) {
	m := NewNoopMetrics()
	m.RecordValidation("valid", 1)
	m.RecordBaseline(0.1, false)
	m.RecordInference("charges_direct", 8, 0.01)
	m.RecordPredict("direct", 1, 0.5)
	m.RecordWeightResolve("single_energy_delta", true)
}
