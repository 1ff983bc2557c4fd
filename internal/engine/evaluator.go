package engine

import (
	"github.com/talgya/sprawl/internal/landcover"
)

// Confusion is the shared count every agreement metric derives from.
type Confusion struct {
	TP, FP, FN, TN int
}

// Metrics are the agreement statistics between the simulated end state and
// the observed future, restricted to cells that were eligible at the start.
type Metrics struct {
	Confusion

	Precision float64
	Recall    float64
	F1        float64
	IoU       float64
	Kappa     float64
}

// Evaluate compares State.Current against the observed future over the
// cells that were non-urban and valid in the initial grid. Cells urban from
// the start never enter the population.
func Evaluate(st *landcover.State) Metrics {
	var c Confusion
	eligible := st.NonUrbanAtStart.Values()
	cv := st.Current.Values()
	fv := st.ObservedFuture.Values()

	for i, ok := range eligible {
		if !ok {
			continue
		}
		pred := cv[i] == landcover.UrbanCode
		obs := fv[i] == landcover.UrbanCode
		switch {
		case pred && obs:
			c.TP++
		case pred && !obs:
			c.FP++
		case !pred && obs:
			c.FN++
		default:
			c.TN++
		}
	}
	return MetricsFromConfusion(c)
}

// MetricsFromConfusion derives all five scores from one confusion count, so
// they cannot disagree numerically. Undefined ratios come out as 0.
func MetricsFromConfusion(c Confusion) Metrics {
	m := Metrics{Confusion: c}
	tp := float64(c.TP)
	fp := float64(c.FP)
	fn := float64(c.FN)
	tn := float64(c.TN)

	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if tp+fp+fn > 0 {
		m.IoU = tp / (tp + fp + fn)
	}

	n := tp + fp + fn + tn
	if n > 0 {
		po := (tp + tn) / n
		pe := ((tp+fp)*(tp+fn) + (fn+tn)*(fp+tn)) / (n * n)
		if pe != 1 {
			m.Kappa = (po - pe) / (1 - pe)
		}
	}
	return m
}
