// Package oracle defines the predictive-model contract the engine calls
// once per tile, plus the two concrete implementations shipped with the
// simulator: a remote HTTP model server and a local logistic baseline.
package oracle

import (
	"context"
	"errors"
)

// ErrInvocation wraps any failure surfaced by a predictive call. The
// simulation iteration aborts on it, but state committed by prior
// iterations is preserved for the caller to inspect.
var ErrInvocation = errors.New("oracle: invocation failed")

// Oracle produces a per-cell urbanization likelihood for one tile.
//
// features holds one vector per cell in row-major tile order, each vector
// in canonical ascending-factor-ID order. The returned slice is row-major
// tileH*tileW. Values are likelihoods in [0,1]; the engine applies no
// squashing, so raw-score conversion is the model's job.
type Oracle interface {
	Predict(ctx context.Context, features [][]float32, tileH, tileW int) ([]float32, error)
}
