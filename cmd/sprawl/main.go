// Command sprawl runs the urban growth allocation simulation for one
// scenario file and writes the simulated land-cover grid.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/sprawl/internal/config"
	"github.com/talgya/sprawl/internal/engine"
	"github.com/talgya/sprawl/internal/factor"
	"github.com/talgya/sprawl/internal/landcover"
	"github.com/talgya/sprawl/internal/oracle"
	"github.com/talgya/sprawl/internal/raster"
	"github.com/talgya/sprawl/internal/telemetry"
)

func main() {
	var (
		scenarioPath = flag.String("config", "scenario.yaml", "scenario file")
		outputPath   = flag.String("output", "", "override output raster path")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*scenarioPath, *outputPath); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(scenarioPath, outputOverride string) error {
	cfg, err := config.Load(scenarioPath)
	if err != nil {
		return err
	}
	if outputOverride != "" {
		cfg.OutputPath = outputOverride
	}

	// ── Rasters ───────────────────────────────────────────────────────
	initial, georef, err := raster.ReadASCII(cfg.InitialPath)
	if err != nil {
		return err
	}
	future, _, err := raster.ReadASCII(cfg.FuturePath)
	if err != nil {
		return err
	}

	raw := make(map[int]*raster.Grid, len(cfg.Factors))
	specs := make(map[int]factor.Spec, len(cfg.Factors))
	for _, fs := range cfg.Factors {
		g, _, err := raster.ReadASCII(fs.Path)
		if err != nil {
			return err
		}
		raw[fs.ID] = g
		specs[fs.ID] = factor.Spec{ID: fs.ID, NoData: fs.NoData, LogTransform: fs.Log}
	}

	stack, err := factor.NewStack(raw, specs)
	if err != nil {
		return err
	}
	for _, id := range stack.IDs() {
		st, _ := stack.Stats(id)
		slog.Debug("factor normalized", "id", id, "min", st.Min, "max", st.Max)
	}

	restricted, err := stack.RestrictedMask(cfg.RestrictedFactorID)
	if err != nil {
		return err
	}

	state, err := landcover.NewState(initial, future, restricted)
	if err != nil {
		return err
	}
	slog.Info("study area loaded",
		"extent", humanize.Comma(int64(initial.Rows*initial.Cols)),
		"valid", humanize.Comma(int64(state.Valid.Count())),
		"restricted", humanize.Comma(int64(restricted.Count())),
		"initial_urban", humanize.Comma(int64(state.InitialUrban())),
		"target_urban", humanize.Comma(int64(state.TargetUrban())),
	)

	// ── Oracle ────────────────────────────────────────────────────────
	var pred oracle.Oracle
	if httpOracle := oracle.NewHTTPOracle(cfg.OracleEndpoint, time.Duration(cfg.OracleTimeoutSec)*time.Second); httpOracle != nil {
		slog.Info("using remote oracle", "endpoint", cfg.OracleEndpoint)
		pred = httpOracle
	} else {
		slog.Info("no oracle endpoint configured, using logistic baseline")
		pred = oracle.UniformLogistic(stack.Len())
	}

	// ── Simulation ────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	alloc := &engine.Allocator{
		State: state,
		Assembler: &engine.Assembler{
			Stack:    stack,
			Oracle:   pred,
			TileSize: cfg.TileSize,
			Workers:  cfg.Workers,
		},
		Kernel: engine.NewKernel(),
		Params: engine.Params{
			Iterations:         cfg.Iterations,
			NeighborhoodWeight: cfg.NeighborhoodWeight,
			PressureDecay:      cfg.PressureDecay,
		},
	}

	startedAt := time.Now()
	rounds, runErr := alloc.Run(ctx)
	finishedAt := time.Now()

	converted := state.CurrentUrban() - state.InitialUrban()
	slog.Info("simulation finished",
		"rounds", len(rounds),
		"converted", humanize.Comma(int64(converted)),
		"final_urban", humanize.Comma(int64(state.CurrentUrban())),
		"elapsed", finishedAt.Sub(startedAt),
	)

	// The partially grown state is worth keeping even on failure.
	if err := raster.WriteASCII(state.Current, cfg.OutputPath, georef); err != nil {
		return err
	}
	slog.Info("simulated land cover written", "path", cfg.OutputPath)

	var metrics engine.Metrics
	evaluated := runErr == nil
	if evaluated {
		metrics = engine.Evaluate(state)
		slog.Info("agreement with observed future",
			"precision", metrics.Precision,
			"recall", metrics.Recall,
			"f1", metrics.F1,
			"iou", metrics.IoU,
			"kappa", metrics.Kappa,
		)
	}

	if cfg.TelemetryDB != "" {
		if err := record(cfg, scenarioPath, state, rounds, metrics, evaluated, startedAt, finishedAt, runErr != nil); err != nil {
			slog.Error("telemetry write failed", "error", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func record(cfg config.Config, scenarioPath string, state *landcover.State,
	rounds []engine.RoundStats, metrics engine.Metrics, evaluated bool,
	startedAt, finishedAt time.Time, failed bool) error {

	db, err := telemetry.Open(cfg.TelemetryDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := uuid.NewString()
	err = db.RecordRun(telemetry.Run{
		ID:           runID,
		Scenario:     scenarioPath,
		Seed:         cfg.Seed,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		InitialUrban: state.InitialUrban(),
		TargetUrban:  state.TargetUrban(),
		FinalUrban:   state.CurrentUrban(),
		Failed:       failed,
	}, rounds)
	if err != nil {
		return err
	}
	if evaluated {
		if err := db.RecordMetrics(runID, metrics); err != nil {
			return err
		}
	}
	slog.Info("telemetry recorded", "run_id", runID, "db", cfg.TelemetryDB)
	return nil
}
