package raster

import (
	"errors"
	"testing"
)

func TestCheckSameExtent(t *testing.T) {
	a, _ := NewGrid(4, 6)
	b, _ := NewGrid(4, 6)
	m := NewMask(4, 6)
	if err := CheckSameExtent(a, b, m); err != nil {
		t.Fatalf("co-registered layers rejected: %v", err)
	}

	c, _ := NewGrid(4, 7)
	err := CheckSameExtent(a, c)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestNewGridRejectsInvalidExtent(t *testing.T) {
	if _, err := NewGrid(0, 5); err == nil {
		t.Fatal("zero rows accepted")
	}
	if _, err := NewGrid(5, -1); err == nil {
		t.Fatal("negative cols accepted")
	}
}

func TestFromValuesLengthCheck(t *testing.T) {
	if _, err := FromValues(2, 3, make([]float32, 5)); err == nil {
		t.Fatal("short slice accepted")
	}
	g, err := FromValues(2, 3, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("FromValues: %v", err)
	}
	if g.At(1, 2) != 6 {
		t.Fatalf("At(1,2) = %v, want 6", g.At(1, 2))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g, _ := NewGrid(2, 2)
	g.Set(0, 0, 9)
	c := g.Clone()
	c.Set(0, 0, 1)
	if g.At(0, 0) != 9 {
		t.Fatal("clone shares backing storage with original")
	}
}

func TestValidityMask(t *testing.T) {
	g, _ := FromValues(2, 2, []float32{0, 1, 2, 0})
	m := ValidityMask(g, 0)
	want := []bool{false, true, true, false}
	for i, v := range m.Values() {
		if v != want[i] {
			t.Fatalf("cell %d: valid=%v, want %v", i, v, want[i])
		}
	}

	f, _ := FromValues(1, 3, []float32{-9999, 0, 3.5})
	fm := ValidityMask(f, -9999)
	if fm.At(0, 0) || !fm.At(0, 1) || !fm.At(0, 2) {
		t.Fatal("continuous-layer sentinel handled wrong")
	}
}

func TestMaskCount(t *testing.T) {
	m := NewMask(3, 3)
	m.Set(0, 0, true)
	m.Set(2, 2, true)
	if got := m.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}
