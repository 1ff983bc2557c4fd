// Package landcover tracks the mutable land-cover state of a simulation run
// and the masks derived from it.
package landcover

import (
	"github.com/talgya/sprawl/internal/raster"
)

// Land-cover codes. 0 doubles as the no-data sentinel for categorical grids.
const (
	NoDataCode = 0
	UrbanCode  = 1
)

// State holds the observed start and end grids plus the evolving working
// grid. Current starts as a copy of Initial and only ever gains urban cells.
type State struct {
	Initial        *raster.Grid
	ObservedFuture *raster.Grid
	Current        *raster.Grid

	Valid           *raster.Mask
	Restricted      *raster.Mask
	NonUrbanAtStart *raster.Mask

	initialUrban int
	targetUrban  int
}

// NewState builds the run state from the two observed grids and the
// restricted mask derived from the factor stack.
func NewState(initial, observedFuture *raster.Grid, restricted *raster.Mask) (*State, error) {
	if err := raster.CheckSameExtent(initial, observedFuture, restricted); err != nil {
		return nil, err
	}

	valid := raster.ValidityMask(initial, NoDataCode)

	nonUrban := raster.NewMask(initial.Rows, initial.Cols)
	nu := nonUrban.Values()
	iv := initial.Values()
	vm := valid.Values()
	for i := range iv {
		nu[i] = iv[i] != UrbanCode && vm[i]
	}

	st := &State{
		Initial:         initial,
		ObservedFuture:  observedFuture,
		Current:         initial.Clone(),
		Valid:           valid,
		Restricted:      restricted,
		NonUrbanAtStart: nonUrban,
	}

	fv := observedFuture.Values()
	for i := range iv {
		if !vm[i] {
			continue
		}
		if iv[i] == UrbanCode {
			st.initialUrban++
		}
		if fv[i] == UrbanCode {
			st.targetUrban++
		}
	}
	return st, nil
}

// UrbanMask recomputes the urban mask from Current.
func (s *State) UrbanMask() *raster.Mask {
	m := raster.NewMask(s.Current.Rows, s.Current.Cols)
	dst := m.Values()
	cv := s.Current.Values()
	vm := s.Valid.Values()
	for i := range cv {
		dst[i] = cv[i] == UrbanCode && vm[i]
	}
	return m
}

// TransitionMask marks cells that actually converted between the observed
// start and end grids. Consumed only by the evaluator.
func (s *State) TransitionMask() *raster.Mask {
	m := raster.NewMask(s.Initial.Rows, s.Initial.Cols)
	dst := m.Values()
	iv := s.Initial.Values()
	fv := s.ObservedFuture.Values()
	vm := s.Valid.Values()
	for i := range iv {
		dst[i] = iv[i] != UrbanCode && fv[i] == UrbanCode && vm[i]
	}
	return m
}

// InitialUrban returns the valid urban count in the start grid.
func (s *State) InitialUrban() int { return s.initialUrban }

// TargetUrban returns the valid urban count in the observed future grid.
func (s *State) TargetUrban() int { return s.targetUrban }

// RemainingNeed returns the conversion deficit at the start of a run.
func (s *State) RemainingNeed() int {
	need := s.targetUrban - s.initialUrban
	if need < 0 {
		return 0
	}
	return need
}

// CurrentUrban counts valid urban cells in the working grid. Progress is
// always read from here rather than a separately mutated counter, so the
// count cannot drift from the grid.
func (s *State) CurrentUrban() int {
	n := 0
	cv := s.Current.Values()
	vm := s.Valid.Values()
	for i := range cv {
		if cv[i] == UrbanCode && vm[i] {
			n++
		}
	}
	return n
}

// Convert commits a cell to urban. Never reverted within a run.
func (s *State) Convert(idx int) {
	s.Current.Values()[idx] = UrbanCode
}
