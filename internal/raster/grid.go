// Package raster provides the dense float32 grid and boolean mask types
// every layer in a simulation run is built from.
package raster

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch reports grids that claim to describe the same study
// area but disagree in extent.
var ErrDimensionMismatch = errors.New("raster: dimension mismatch")

// Grid is a rectangular single-band raster stored row-major.
type Grid struct {
	Rows, Cols int
	data       []float32
}

// NewGrid allocates a zero-filled grid with the given extent.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("raster: invalid extent %dx%d", rows, cols)
	}
	return &Grid{Rows: rows, Cols: cols, data: make([]float32, rows*cols)}, nil
}

// FromValues wraps an existing row-major slice. The slice is owned by the
// grid after the call.
func FromValues(rows, cols int, values []float32) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("raster: invalid extent %dx%d", rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("raster: %d values for %dx%d extent", len(values), rows, cols)
	}
	return &Grid{Rows: rows, Cols: cols, data: values}, nil
}

// Index returns the linear slice index for (row, col).
func (g *Grid) Index(row, col int) int { return row*g.Cols + col }

// At returns the value at (row, col).
func (g *Grid) At(row, col int) float32 { return g.data[row*g.Cols+col] }

// Set stores a value at (row, col).
func (g *Grid) Set(row, col int, v float32) { g.data[row*g.Cols+col] = v }

// Values exposes the backing slice so callers can read/write directly.
func (g *Grid) Values() []float32 { return g.data }

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	data := make([]float32, len(g.data))
	copy(data, g.data)
	return &Grid{Rows: g.Rows, Cols: g.Cols, data: data}
}

// Extent returns (rows, cols).
func (g *Grid) Extent() (int, int) { return g.Rows, g.Cols }

// Extenter is any raster layer that knows its own extent.
type Extenter interface {
	Extent() (int, int)
}

// CheckSameExtent verifies every layer shares the extent of the first.
// Returns ErrDimensionMismatch (wrapped with both extents) on disagreement.
func CheckSameExtent(layers ...Extenter) error {
	if len(layers) == 0 {
		return nil
	}
	r0, c0 := layers[0].Extent()
	for _, l := range layers[1:] {
		r, c := l.Extent()
		if r != r0 || c != c0 {
			return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, r0, c0, r, c)
		}
	}
	return nil
}

// Mask is a boolean raster layer with the same row-major layout as Grid.
type Mask struct {
	Rows, Cols int
	data       []bool
}

// NewMask allocates an all-false mask.
func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, data: make([]bool, rows*cols)}
}

// At returns the flag at (row, col).
func (m *Mask) At(row, col int) bool { return m.data[row*m.Cols+col] }

// Set stores a flag at (row, col).
func (m *Mask) Set(row, col int, v bool) { m.data[row*m.Cols+col] = v }

// Values exposes the backing slice.
func (m *Mask) Values() []bool { return m.data }

// Count returns the number of true cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	data := make([]bool, len(m.data))
	copy(data, m.data)
	return &Mask{Rows: m.Rows, Cols: m.Cols, data: data}
}

// Extent returns (rows, cols).
func (m *Mask) Extent() (int, int) { return m.Rows, m.Cols }

// ValidityMask marks cells whose value differs from the no-data sentinel.
// The sentinel is supplied per call: land-cover layers use 0, continuous
// factor layers conventionally use -9999.
func ValidityMask(g *Grid, noData float32) *Mask {
	m := NewMask(g.Rows, g.Cols)
	for i, v := range g.data {
		m.data[i] = v != noData
	}
	return m
}
