package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/talgya/sprawl/internal/factor"
	"github.com/talgya/sprawl/internal/oracle"
	"github.com/talgya/sprawl/internal/raster"
)

// Tile is one sub-window of the full extent.
type Tile struct {
	Row0, Col0 int
	Rows, Cols int
}

// Partition splits a rows x cols extent into a row-major grid of tiles of
// nominal size. The last tile in each row/column is clipped to the
// remaining extent, never padded: the oracle's pooling is shape-sensitive,
// so the clipped shape is what gets passed downstream.
func Partition(rows, cols, size int) []Tile {
	var tiles []Tile
	for r0 := 0; r0 < rows; r0 += size {
		h := size
		if r0+h > rows {
			h = rows - r0
		}
		for c0 := 0; c0 < cols; c0 += size {
			w := size
			if c0+w > cols {
				w = cols - c0
			}
			tiles = append(tiles, Tile{Row0: r0, Col0: c0, Rows: h, Cols: w})
		}
	}
	return tiles
}

// Assembler produces a full-extent probability surface by invoking the
// oracle once per tile. Tiles carry no state across each other and are
// fanned out to a bounded worker pool; the surface is complete only after
// Assemble returns.
type Assembler struct {
	Stack    *factor.Stack
	Oracle   oracle.Oracle
	TileSize int
	Workers  int
}

// Assemble runs one full assembly pass over a snapshot of the factor stack.
// The oracle observes driver factors only, never the urban mask. The first
// tile failure aborts the pass.
func (a *Assembler) Assemble(ctx context.Context) (*raster.Grid, error) {
	rows, cols := a.Stack.Extent()
	out, err := raster.NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}

	size := a.TileSize
	if size <= 0 {
		size = 64
	}
	workers := a.Workers
	if workers <= 0 {
		workers = 4
	}
	tiles := Partition(rows, cols, size)
	if workers > len(tiles) {
		workers = len(tiles)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	work := make(chan Tile)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					continue
				}
				if err := a.assembleTile(ctx, t, out); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}
	for _, t := range tiles {
		work <- t
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// assembleTile gathers the tile's feature batch, calls the oracle, and
// writes the result at the tile's absolute offset. Tiles are disjoint, so
// writes into out need no lock.
func (a *Assembler) assembleTile(ctx context.Context, t Tile, out *raster.Grid) error {
	n := a.Stack.Len()
	features := make([][]float32, 0, t.Rows*t.Cols)
	backing := make([]float32, 0, t.Rows*t.Cols*n)
	for r := t.Row0; r < t.Row0+t.Rows; r++ {
		for c := t.Col0; c < t.Col0+t.Cols; c++ {
			start := len(backing)
			backing = a.Stack.FeatureVector(r, c, backing)
			features = append(features, backing[start:len(backing):len(backing)])
		}
	}

	probs, err := a.Oracle.Predict(ctx, features, t.Rows, t.Cols)
	if err != nil {
		return fmt.Errorf("tile (%d,%d) %dx%d: %w", t.Row0, t.Col0, t.Rows, t.Cols, err)
	}
	if len(probs) != t.Rows*t.Cols {
		return fmt.Errorf("tile (%d,%d): %w: got %d probabilities for %dx%d",
			t.Row0, t.Col0, oracle.ErrInvocation, len(probs), t.Rows, t.Cols)
	}

	for r := 0; r < t.Rows; r++ {
		dstRow := (t.Row0+r)*out.Cols + t.Col0
		srcRow := r * t.Cols
		copy(out.Values()[dstRow:dstRow+t.Cols], probs[srcRow:srcRow+t.Cols])
	}
	return nil
}
