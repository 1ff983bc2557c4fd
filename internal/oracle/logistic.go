package oracle

import (
	"context"
	"fmt"
	"math"
)

// LogisticOracle is a deterministic in-process model: a weighted logistic
// over the feature vector. It stands in for a trained model in offline runs
// and tests.
type LogisticOracle struct {
	Weights []float64
	Bias    float64
}

// NewLogisticOracle builds a logistic oracle with explicit weights.
func NewLogisticOracle(weights []float64, bias float64) *LogisticOracle {
	return &LogisticOracle{Weights: weights, Bias: bias}
}

// UniformLogistic builds a logistic oracle with equal unit weights for n
// factors, centered so an all-0.5 feature vector scores 0.5.
func UniformLogistic(n int) *LogisticOracle {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return &LogisticOracle{Weights: w, Bias: -float64(n) / 2}
}

// Predict implements Oracle.
func (o *LogisticOracle) Predict(_ context.Context, features [][]float32, tileH, tileW int) ([]float32, error) {
	if len(features) != tileH*tileW {
		return nil, fmt.Errorf("%w: got %d feature vectors for %dx%d tile",
			ErrInvocation, len(features), tileH, tileW)
	}
	out := make([]float32, len(features))
	for i, vec := range features {
		if len(vec) != len(o.Weights) {
			return nil, fmt.Errorf("%w: feature vector length %d, weights %d",
				ErrInvocation, len(vec), len(o.Weights))
		}
		z := o.Bias
		for j, v := range vec {
			z += o.Weights[j] * float64(v)
		}
		out[i] = float32(1 / (1 + math.Exp(-z)))
	}
	return out, nil
}
