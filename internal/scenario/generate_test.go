package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/sprawl/internal/factor"
	"github.com/talgya/sprawl/internal/landcover"
)

func smallConfig() GenConfig {
	return GenConfig{Rows: 48, Cols: 48, Seed: 7, UrbanFrac: 0.05, GrowthFrac: 0.02}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(smallConfig())
	b := Generate(smallConfig())
	require.Equal(t, a.Initial.Values(), b.Initial.Values())
	require.Equal(t, a.Future.Values(), b.Future.Values())
	for id := range a.RawFactors {
		require.Equal(t, a.RawFactors[id].Values(), b.RawFactors[id].Values(), "factor %d", id)
	}
}

func TestGenerateGrowsMonotonically(t *testing.T) {
	sc := Generate(smallConfig())

	initialUrban := 0
	futureUrban := 0
	for i, v := range sc.Initial.Values() {
		fv := sc.Future.Values()[i]
		if v == landcover.UrbanCode {
			initialUrban++
			require.Equal(t, float32(landcover.UrbanCode), fv, "urban cell %d reverted in future grid", i)
		}
		if fv == landcover.UrbanCode {
			futureUrban++
		}
	}
	require.Greater(t, initialUrban, 0)
	require.Greater(t, futureUrban, initialUrban)
}

func TestGenerateFeedsTheEngine(t *testing.T) {
	sc := Generate(smallConfig())

	stack, err := factor.NewStack(sc.RawFactors, sc.Specs)
	require.NoError(t, err)
	require.Equal(t, []int{AccessFactor, SlopeFactor, CBDDistanceFactor, RestrictedFactor}, stack.IDs())

	restricted, err := stack.RestrictedMask(sc.RestrictedFactorID)
	require.NoError(t, err)

	state, err := landcover.NewState(sc.Initial, sc.Future, restricted)
	require.NoError(t, err)

	// No cell carries the no-data code, so the whole extent is valid.
	require.Equal(t, 48*48, state.Valid.Count())

	// Urban cells never sit inside the restricted zone.
	um := state.UrbanMask()
	for i, u := range um.Values() {
		if u {
			require.False(t, restricted.Values()[i], "urban cell %d in restricted zone", i)
		}
	}
}

func TestGenerateLogFactorIsCBDDistance(t *testing.T) {
	sc := Generate(smallConfig())
	require.Equal(t, CBDDistanceFactor, sc.LogFactorID)
	require.True(t, sc.Specs[CBDDistanceFactor].LogTransform)
	require.False(t, sc.Specs[AccessFactor].LogTransform)
}
