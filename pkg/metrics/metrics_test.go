package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersTrackOutcomesPerMethod(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	metrics := NewSaleMetrics(registry)

	metrics.IncSuccess("EFECTIVO")
	metrics.IncSuccess("EFECTIVO")
	metrics.IncSuccess("TARJETA")
	metrics.IncFailure("EFECTIVO")

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.success.WithLabelValues("EFECTIVO")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.success.WithLabelValues("TARJETA")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.failure.WithLabelValues("EFECTIVO")))
}

func TestDurationHistogramCollectsObservations(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	metrics := NewSaleMetrics(registry)

	metrics.ObserveDuration("EFECTIVO", 120*time.Millisecond)
	metrics.ObserveDuration("EFECTIVO", 300*time.Millisecond)

	count, err := testutil.GatherAndCount(registry, "sale_submission_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one labelled series expected")
}

func TestEmptyMethodFallsBackToUnknownLabel(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	metrics := NewSaleMetrics(registry)

	metrics.IncSuccess("")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.success.WithLabelValues("unknown")))
}

func TestNilReceiverAndNilRegistererAreInert(t *testing.T) {
	t.Parallel()

	var nilMetrics *SaleMetrics
	nilMetrics.IncSuccess("EFECTIVO")
	nilMetrics.IncFailure("EFECTIVO")
	nilMetrics.ObserveDuration("EFECTIVO", time.Second)

	unregistered := NewSaleMetrics(nil)
	unregistered.IncSuccess("EFECTIVO")
	unregistered.ObserveDuration("EFECTIVO", time.Second)
}
