package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	MustRegister(reg)

	SupersededTotal.WithLabelValues("analysis").Inc()
	if got := testutil.ToFloat64(SupersededTotal.WithLabelValues("analysis")); got < 1 {
		t.Fatalf("got %v, want >= 1", got)
	}
}
