package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/sprawl/internal/landcover"
	"github.com/talgya/sprawl/internal/raster"
)

func TestMetricsClosedForm(t *testing.T) {
	m := MetricsFromConfusion(Confusion{TP: 3, FP: 1, FN: 2, TN: 4})

	require.InDelta(t, 0.75, m.Precision, 1e-12)
	require.InDelta(t, 0.6, m.Recall, 1e-12)
	require.InDelta(t, 2.0/3.0, m.F1, 1e-12)
	require.InDelta(t, 0.5, m.IoU, 1e-12)

	// po = 7/10, pe = (4*5 + 6*5)/100 = 1/2, kappa = (0.7-0.5)/(1-0.5).
	require.InDelta(t, 0.4, m.Kappa, 1e-12)
}

func TestMetricsDegenerateCounts(t *testing.T) {
	m := MetricsFromConfusion(Confusion{})
	require.Zero(t, m.Precision)
	require.Zero(t, m.Recall)
	require.Zero(t, m.F1)
	require.Zero(t, m.IoU)
	require.Zero(t, m.Kappa)

	// All-negative agreement: no positives anywhere, kappa undefined (pe=1).
	m = MetricsFromConfusion(Confusion{TN: 9})
	require.Zero(t, m.Kappa)
}

func TestEvaluateRestrictsToInitiallyNonUrban(t *testing.T) {
	initial, err := raster.FromValues(2, 2, []float32{1, 2, 2, 2})
	require.NoError(t, err)
	future, err := raster.FromValues(2, 2, []float32{1, 1, 2, 2})
	require.NoError(t, err)

	st, err := landcover.NewState(initial, future, raster.NewMask(2, 2))
	require.NoError(t, err)

	// Simulate: convert cells 1 (a true transition) and 3 (a false one).
	st.Convert(1)
	st.Convert(3)

	m := Evaluate(st)
	// Cell 0 was urban at start and never enters the population.
	require.Equal(t, Confusion{TP: 1, FP: 1, FN: 0, TN: 1}, m.Confusion)
	require.InDelta(t, 0.5, m.Precision, 1e-12)
	require.InDelta(t, 1.0, m.Recall, 1e-12)
	require.InDelta(t, 2.0/3.0, m.F1, 1e-12)
	require.InDelta(t, 0.5, m.IoU, 1e-12)
	require.InDelta(t, 0.4, m.Kappa, 1e-12)
}
