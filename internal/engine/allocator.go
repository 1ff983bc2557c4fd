package engine

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/talgya/sprawl/internal/landcover"
)

// Params are the allocator tunables.
type Params struct {
	Iterations         int
	NeighborhoodWeight float64 // multiplier on the influence surface
	PressureDecay      float64 // pressure *= decay after each round
}

// DefaultParams returns the standard tunables.
func DefaultParams() Params {
	return Params{
		Iterations:         10,
		NeighborhoodWeight: 0.9,
		PressureDecay:      0.5,
	}
}

// RoundStats records what one allocation round did.
type RoundStats struct {
	Round      int
	Quota      int
	Candidates int
	Converted  int
	Threshold  float64
	Pressure   float64
}

// Allocator runs the iterative growth simulation. Rounds are strictly
// sequential: each round's candidate pool and pressure depend on the
// previous round's committed state.
type Allocator struct {
	State     *landcover.State
	Assembler *Assembler
	Kernel    *Kernel
	Params    Params
}

// Run executes the simulation. It returns per-round statistics; on oracle
// failure the error is returned together with the rounds already committed,
// and State.Current keeps the progress made so far. Cancellation is honored
// between rounds only, so the state is always round-consistent.
func (a *Allocator) Run(ctx context.Context) ([]RoundStats, error) {
	need := a.State.RemainingNeed()
	if need == 0 {
		slog.Info("no conversion deficit, nothing to simulate")
		return nil, nil
	}

	// The deficit is split evenly up front. Tie-inclusive rounds can
	// overshoot the target before the last round; the quota is still never
	// recomputed from the shrinking remainder.
	quota := need / a.Params.Iterations
	if quota < 1 {
		quota = 1
	}

	pressure := 1.0
	var stats []RoundStats

	for round := 0; round < a.Params.Iterations; round++ {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		urban := a.State.UrbanMask()
		influence := a.Kernel.Surface(urban, a.State.Valid)

		prob, err := a.Assembler.Assemble(ctx)
		if err != nil {
			return stats, err
		}

		candIdx, candScore := a.candidates(prob.Values(), influence.Values(), pressure)
		if len(candIdx) == 0 {
			slog.Info("candidate pool empty, terminating early", "round", round)
			break
		}

		k := quota
		if k > len(candIdx) {
			k = len(candIdx)
		}

		sorted := make([]float64, len(candScore))
		copy(sorted, candScore)
		inds := make([]int, len(sorted))
		floats.Argsort(sorted, inds)
		threshold := sorted[len(sorted)-k]

		// Every candidate at or above the threshold converts. Ties at the
		// threshold are all included, so a round may exceed its quota.
		converted := 0
		for j, idx := range candIdx {
			if candScore[j] >= threshold {
				a.State.Convert(idx)
				converted++
			}
		}

		stats = append(stats, RoundStats{
			Round:      round,
			Quota:      quota,
			Candidates: len(candIdx),
			Converted:  converted,
			Threshold:  threshold,
			Pressure:   pressure,
		})
		slog.Debug("allocation round",
			"round", round,
			"candidates", len(candIdx),
			"converted", converted,
			"urban_now", a.State.CurrentUrban(),
			"pressure", pressure,
		)

		pressure *= a.Params.PressureDecay
	}
	return stats, nil
}

// candidates gathers every convertible cell with its combined score:
// probability scaled by neighborhood influence and the decaying pressure.
func (a *Allocator) candidates(prob, influence []float32, pressure float64) ([]int, []float64) {
	cv := a.State.Current.Values()
	vm := a.State.Valid.Values()
	rm := a.State.Restricted.Values()
	w := a.Params.NeighborhoodWeight

	var idx []int
	var score []float64
	for i := range cv {
		if cv[i] == landcover.UrbanCode || !vm[i] || rm[i] {
			continue
		}
		combined := float64(prob[i]) * (1 + w*float64(influence[i])) * pressure
		idx = append(idx, i)
		score = append(score, combined)
	}
	return idx, score
}
