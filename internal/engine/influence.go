// Package engine contains the growth-allocation core: neighborhood
// influence, tiled probability assembly, the iterative allocator, and the
// outcome evaluator.
package engine

import (
	"github.com/talgya/sprawl/internal/raster"
)

// Kernel is the fixed 5x5 smoothing kernel applied to the urban indicator
// to produce the local development-pressure surface. Weights are centered
// on 0.5 with a small spread and are set once; they are not learned.
type Kernel struct {
	w [25]float32
}

// NewKernel returns the influence kernel.
func NewKernel() *Kernel {
	return &Kernel{w: [25]float32{
		0.540, 0.460, 0.530, 0.470, 0.520,
		0.480, 0.510, 0.490, 0.535, 0.465,
		0.525, 0.475, 0.500, 0.515, 0.485,
		0.505, 0.495, 0.545, 0.455, 0.512,
		0.488, 0.522, 0.478, 0.532, 0.468,
	}}
}

// Surface convolves the urban mask with the kernel, zero-padded at grid
// boundaries, and zeroes the result outside the study area. The output is
// not a probability; it feeds the combined score multiplicatively.
func (k *Kernel) Surface(urban, valid *raster.Mask) *raster.Grid {
	rows, cols := urban.Rows, urban.Cols
	out, _ := raster.NewGrid(rows, cols)
	uv := urban.Values()
	vv := valid.Values()
	dst := out.Values()

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			i := row*cols + col
			if !vv[i] {
				continue
			}
			var sum float32
			for dr := -2; dr <= 2; dr++ {
				nr := row + dr
				if nr < 0 || nr >= rows {
					continue
				}
				for dc := -2; dc <= 2; dc++ {
					nc := col + dc
					if nc < 0 || nc >= cols {
						continue
					}
					if uv[nr*cols+nc] {
						sum += k.w[(dr+2)*5+(dc+2)]
					}
				}
			}
			dst[i] = sum
		}
	}
	return out
}
