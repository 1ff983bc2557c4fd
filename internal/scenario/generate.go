// Package scenario generates synthetic study areas using layered simplex
// noise: driver factor layers, a restricted-zone layer, and initial/future
// land-cover grids with a plausible urban cluster. Used by cmd/mkscenario
// and by engine tests that need a full-size run without real rasters.
package scenario

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/sprawl/internal/factor"
	"github.com/talgya/sprawl/internal/landcover"
	"github.com/talgya/sprawl/internal/raster"
)

// Factor identifiers assigned by the generator. CBDDistanceFactor is the
// log-transformed one; RestrictedFactor is the hard no-build layer.
const (
	AccessFactor      = 1
	SlopeFactor       = 2
	CBDDistanceFactor = 3
	RestrictedFactor  = 6
)

// GenConfig holds scenario generation parameters.
type GenConfig struct {
	Rows, Cols int
	Seed       int64
	UrbanFrac  float64 // fraction of buildable cells urban at start
	GrowthFrac float64 // additional fraction urban in the future grid
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Rows:       256,
		Cols:       256,
		Seed:       42,
		UrbanFrac:  0.05,
		GrowthFrac: 0.02,
	}
}

// Scenario is a complete synthetic study area.
type Scenario struct {
	Initial *raster.Grid
	Future  *raster.Grid

	RawFactors map[int]*raster.Grid
	Specs      map[int]factor.Spec

	RestrictedFactorID int
	LogFactorID        int
}

// Generate builds a deterministic scenario from the seed.
func Generate(cfg GenConfig) *Scenario {
	accessNoise := opensimplex.NewNormalized(cfg.Seed)
	slopeNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	waterNoise := opensimplex.NewNormalized(cfg.Seed + 2)

	rows, cols := cfg.Rows, cfg.Cols
	access, _ := raster.NewGrid(rows, cols)
	slope, _ := raster.NewGrid(rows, cols)
	cbd, _ := raster.NewGrid(rows, cols)
	restricted, _ := raster.NewGrid(rows, cols)

	cr := float64(rows-1) / 2
	cc := float64(cols-1) / 2

	type cell struct {
		idx   int
		score float64
	}
	buildable := make([]cell, 0, rows*cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x := float64(c)
			y := float64(r)

			acc := octaveNoise(accessNoise, x, y, 4, 0.03, 0.5)
			slp := octaveNoise(slopeNoise, x, y, 3, 0.05, 0.5)
			dist := math.Hypot(x-cc, y-cr)

			access.Set(r, c, float32(acc*100))
			slope.Set(r, c, float32(slp*40))
			cbd.Set(r, c, float32(dist*30)) // meters-ish, heavy right skew

			// Water and protected land form the hard no-build zones.
			wet := octaveNoise(waterNoise, x, y, 3, 0.02, 0.5)
			if wet < 0.18 {
				restricted.Set(r, c, 100)
				continue
			}

			// Desirability: accessible, flat, close to the core.
			idx := r*cols + c
			score := acc*0.5 + (1-slp)*0.2 + 0.3/(1+dist/float64(cols)*8)
			buildable = append(buildable, cell{idx: idx, score: score})
		}
	}

	// Urban cells are the most desirable buildable cells; the future grid
	// extends the same ranking further down.
	sort.Slice(buildable, func(i, j int) bool {
		if buildable[i].score != buildable[j].score {
			return buildable[i].score > buildable[j].score
		}
		return buildable[i].idx < buildable[j].idx
	})

	nInitial := int(float64(len(buildable)) * cfg.UrbanFrac)
	nFuture := nInitial + int(float64(len(buildable))*cfg.GrowthFrac)
	if nFuture > len(buildable) {
		nFuture = len(buildable)
	}

	initial, _ := raster.NewGrid(rows, cols)
	future, _ := raster.NewGrid(rows, cols)
	// Everything buildable starts as class 2 (non-urban land); restricted
	// cells stay class 3 so nothing is the no-data code.
	for i := range initial.Values() {
		initial.Values()[i] = 3
		future.Values()[i] = 3
	}
	for _, b := range buildable {
		initial.Values()[b.idx] = 2
		future.Values()[b.idx] = 2
	}
	for i, b := range buildable {
		if i < nInitial {
			initial.Values()[b.idx] = landcover.UrbanCode
		}
		if i < nFuture {
			future.Values()[b.idx] = landcover.UrbanCode
		}
	}

	return &Scenario{
		Initial: initial,
		Future:  future,
		RawFactors: map[int]*raster.Grid{
			AccessFactor:      access,
			SlopeFactor:       slope,
			CBDDistanceFactor: cbd,
			RestrictedFactor:  restricted,
		},
		Specs: map[int]factor.Spec{
			AccessFactor:      {ID: AccessFactor, NoData: -9999},
			SlopeFactor:       {ID: SlopeFactor, NoData: -9999},
			CBDDistanceFactor: {ID: CBDDistanceFactor, NoData: -9999, LogTransform: true},
			RestrictedFactor:  {ID: RestrictedFactor, NoData: -9999},
		},
		RestrictedFactorID: RestrictedFactor,
		LogFactorID:        CBDDistanceFactor,
	}
}

// octaveNoise sums falling-amplitude noise octaves, normalized back to [0,1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxValue
}
