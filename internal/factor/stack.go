// Package factor builds the normalized driver-layer stack the probability
// oracle consumes. Each factor is rescaled to [0,1] against its own observed
// range; the raw range is returned alongside as a diagnostic artifact.
package factor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/talgya/sprawl/internal/raster"
)

// ErrInvalidFactor reports a layer whose every cell is undefined after
// no-data and transform handling. A degenerate factor would silently corrupt
// every feature vector, so stack construction aborts instead.
var ErrInvalidFactor = errors.New("factor: all cells undefined")

// rangeEps is the threshold below which max-min is treated as zero.
const rangeEps = 1e-9

// Stats records the raw min/max a factor was normalized against.
type Stats struct {
	Min float64
	Max float64
}

// Spec describes one raw driver layer.
type Spec struct {
	ID           int
	NoData       float32
	LogTransform bool
}

// Normalize rescales a raw factor layer to [0,1].
//
// No-data cells and, when logTransform is set, negative inputs are excluded
// from the min/max statistics and emitted as 0. logTransform applies
// log(1+v) before statistics; it exists for heavy right-skewed layers such
// as distance to the central business district. A range smaller than
// rangeEps degenerates to value-min rather than dividing by near-zero.
func Normalize(raw *raster.Grid, noData float32, logTransform bool) (*raster.Grid, Stats, error) {
	values := raw.Values()
	work := make([]float64, len(values))
	defined := make([]bool, len(values))
	sample := make([]float64, 0, len(values))

	for i, v := range values {
		if v == noData {
			continue
		}
		x := float64(v)
		if logTransform {
			if x < 0 {
				continue
			}
			x = math.Log1p(x)
		}
		work[i] = x
		defined[i] = true
		sample = append(sample, x)
	}
	if len(sample) == 0 {
		return nil, Stats{}, ErrInvalidFactor
	}

	st := Stats{Min: floats.Min(sample), Max: floats.Max(sample)}
	span := st.Max - st.Min

	out, err := raster.NewGrid(raw.Rows, raw.Cols)
	if err != nil {
		return nil, Stats{}, err
	}
	dst := out.Values()
	for i := range work {
		if !defined[i] {
			continue
		}
		if span < rangeEps {
			dst[i] = float32(work[i] - st.Min)
		} else {
			dst[i] = float32((work[i] - st.Min) / span)
		}
	}
	return out, st, nil
}

// Stack holds co-registered normalized factor layers keyed by factor ID.
type Stack struct {
	grids map[int]*raster.Grid
	stats map[int]Stats
	ids   []int
	rows  int
	cols  int
}

// NewStack normalizes every raw layer and verifies co-registration.
// The raw map is keyed by factor ID and must be non-empty.
func NewStack(raw map[int]*raster.Grid, specs map[int]Spec) (*Stack, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("factor: empty stack")
	}

	ids := make([]int, 0, len(raw))
	layers := make([]raster.Extenter, 0, len(raw))
	for id, g := range raw {
		ids = append(ids, id)
		layers = append(layers, g)
	}
	sort.Ints(ids)
	if err := raster.CheckSameExtent(layers...); err != nil {
		return nil, err
	}

	s := &Stack{
		grids: make(map[int]*raster.Grid, len(raw)),
		stats: make(map[int]Stats, len(raw)),
		ids:   ids,
	}
	s.rows, s.cols = raw[ids[0]].Extent()

	for _, id := range ids {
		spec, ok := specs[id]
		if !ok {
			spec = Spec{ID: id, NoData: -9999}
		}
		norm, st, err := Normalize(raw[id], spec.NoData, spec.LogTransform)
		if err != nil {
			return nil, fmt.Errorf("factor %d: %w", id, err)
		}
		s.grids[id] = norm
		s.stats[id] = st
	}
	return s, nil
}

// IDs returns factor identifiers in ascending order. This is the canonical
// feature ordering; the oracle was trained against it, so it never changes
// between calls.
func (s *Stack) IDs() []int { return s.ids }

// Len returns the number of factors.
func (s *Stack) Len() int { return len(s.ids) }

// Extent returns (rows, cols).
func (s *Stack) Extent() (int, int) { return s.rows, s.cols }

// Grid returns the normalized layer for a factor ID, or nil.
func (s *Stack) Grid(id int) *raster.Grid { return s.grids[id] }

// Stats returns the recorded raw range for a factor ID.
func (s *Stack) Stats(id int) (Stats, bool) {
	st, ok := s.stats[id]
	return st, ok
}

// FeatureVector appends the per-cell feature values in canonical order to
// dst and returns the extended slice.
func (s *Stack) FeatureVector(row, col int, dst []float32) []float32 {
	for _, id := range s.ids {
		dst = append(dst, s.grids[id].At(row, col))
	}
	return dst
}

// RestrictedMask derives the hard no-build mask from the designated factor.
// The source layer is near-binary before rescaling, so restricted cells sit
// at the top of the normalized range; 0.99 separates them.
func (s *Stack) RestrictedMask(restrictedID int) (*raster.Mask, error) {
	g, ok := s.grids[restrictedID]
	if !ok {
		return nil, fmt.Errorf("factor: restricted factor %d not in stack", restrictedID)
	}
	m := raster.NewMask(s.rows, s.cols)
	dst := m.Values()
	for i, v := range g.Values() {
		dst[i] = v >= 0.99
	}
	return m, nil
}
