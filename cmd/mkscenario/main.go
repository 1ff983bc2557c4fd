// Command mkscenario writes a synthetic study area to disk: factor rasters,
// initial/future land cover, and a ready-to-run scenario.yaml.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/talgya/sprawl/internal/config"
	"github.com/talgya/sprawl/internal/raster"
	"github.com/talgya/sprawl/internal/scenario"
)

func main() {
	var (
		outDir = flag.String("out", "testdata/synthetic", "output directory")
		rows   = flag.Int("rows", 256, "grid rows")
		cols   = flag.Int("cols", 256, "grid cols")
		seed   = flag.Int64("seed", 42, "generation seed")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := scenario.DefaultGenConfig()
	cfg.Rows = *rows
	cfg.Cols = *cols
	cfg.Seed = *seed

	if err := write(scenario.Generate(cfg), cfg, *outDir); err != nil {
		slog.Error("scenario generation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("scenario written", "dir", *outDir, "extent", fmt.Sprintf("%dx%d", cfg.Rows, cfg.Cols), "seed", cfg.Seed)
}

func write(sc *scenario.Scenario, gen scenario.GenConfig, dir string) error {
	georef := raster.Georef{CellSize: 30, NoData: -9999}

	if err := raster.WriteASCII(sc.Initial, filepath.Join(dir, "initial.asc"), georef); err != nil {
		return err
	}
	if err := raster.WriteASCII(sc.Future, filepath.Join(dir, "future.asc"), georef); err != nil {
		return err
	}

	scn := config.Config{
		InitialPath:        filepath.Join(dir, "initial.asc"),
		FuturePath:         filepath.Join(dir, "future.asc"),
		RestrictedFactorID: sc.RestrictedFactorID,
		Iterations:         10,
		TileSize:           64,
		Workers:            4,
		NeighborhoodWeight: 0.9,
		PressureDecay:      0.5,
		OracleTimeoutSec:   60,
		OutputPath:         filepath.Join(dir, "simulated.asc"),
		Seed:               gen.Seed,
	}
	ids := make([]int, 0, len(sc.RawFactors))
	for id := range sc.RawFactors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		path := filepath.Join(dir, fmt.Sprintf("factor_%d.asc.gz", id))
		if err := raster.WriteASCII(sc.RawFactors[id], path, georef); err != nil {
			return err
		}
		scn.Factors = append(scn.Factors, config.FactorSpec{
			ID:     id,
			Path:   path,
			NoData: -9999,
			Log:    id == sc.LogFactorID,
		})
	}

	b, err := yaml.Marshal(scn)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "scenario.yaml"), b, 0644)
}
