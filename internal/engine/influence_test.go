package engine

import (
	"math"
	"testing"

	"github.com/talgya/sprawl/internal/raster"
)

func TestKernelWeightsMeanHalf(t *testing.T) {
	k := NewKernel()
	var sum float64
	for _, w := range k.w {
		sum += float64(w)
	}
	if math.Abs(sum/25-0.5) > 1e-6 {
		t.Fatalf("kernel mean = %v, want 0.5", sum/25)
	}
}

func TestSurfaceSingleUrbanCell(t *testing.T) {
	urban := raster.NewMask(5, 5)
	urban.Set(2, 2, true)
	valid := raster.NewMask(5, 5)
	for i := range valid.Values() {
		valid.Values()[i] = true
	}

	k := NewKernel()
	out := k.Surface(urban, valid)

	// The cell itself sees the center weight, the corner sees the
	// outermost one.
	if got := out.At(2, 2); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Fatalf("center influence = %v, want 0.5", got)
	}
	if got := out.At(0, 0); math.Abs(float64(got)-float64(k.w[24])) > 1e-6 {
		t.Fatalf("corner influence = %v, want %v", got, k.w[24])
	}
}

func TestSurfaceZeroPaddingNoWrap(t *testing.T) {
	urban := raster.NewMask(5, 5)
	urban.Set(0, 0, true)
	valid := raster.NewMask(5, 5)
	for i := range valid.Values() {
		valid.Values()[i] = true
	}

	out := NewKernel().Surface(urban, valid)

	// A toroidal implementation would leak influence to the far corner.
	if got := out.At(3, 3); got != 0 {
		t.Fatalf("influence wrapped around the boundary: %v at (3,3)", got)
	}
	if got := out.At(4, 4); got != 0 {
		t.Fatalf("influence wrapped around the boundary: %v at (4,4)", got)
	}
}

func TestSurfaceFullNeighborhood(t *testing.T) {
	urban := raster.NewMask(9, 9)
	valid := raster.NewMask(9, 9)
	for i := range urban.Values() {
		urban.Values()[i] = true
		valid.Values()[i] = true
	}

	out := NewKernel().Surface(urban, valid)
	// Interior cell with all 25 neighbors urban sums the whole kernel.
	if got := out.At(4, 4); math.Abs(float64(got)-12.5) > 1e-4 {
		t.Fatalf("full-neighborhood influence = %v, want 12.5", got)
	}
}

func TestSurfaceMaskedOutsideStudyArea(t *testing.T) {
	urban := raster.NewMask(5, 5)
	urban.Set(2, 2, true)
	valid := raster.NewMask(5, 5)
	for i := range valid.Values() {
		valid.Values()[i] = true
	}
	valid.Set(1, 1, false)

	out := NewKernel().Surface(urban, valid)
	if got := out.At(1, 1); got != 0 {
		t.Fatalf("invalid cell received influence: %v", got)
	}
}
