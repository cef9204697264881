package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Mutation("add")
	m.Mutation("add")
	m.Mutation("remove")
	m.HandlesRemapped(3, 1)
	m.SetSize(10, 2)
	m.ObserveSort(time.Millisecond)

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("add")); got != 2 {
		t.Errorf("add mutations: expected 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.handlesRemapped); got != 3 {
		t.Errorf("remapped: expected 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.handlesDetached); got != 1 {
		t.Errorf("detached: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.entries); got != 10 {
		t.Errorf("entries: expected 10, got %v", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "sortview_model_mutations_total") {
		t.Error("metrics endpoint should expose the mutation counter")
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	m.Mutation("add")
	m.HandlesRemapped(1, 1)
	m.SetSize(1, 1)
	m.ObserveSort(time.Second)
}
