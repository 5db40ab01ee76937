package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gpu-life/internal/brush"
	"gpu-life/internal/compute"
	_ "gpu-life/internal/compute/opencl"
	_ "gpu-life/internal/compute/soft"
	"gpu-life/internal/config"
	"gpu-life/internal/sim"
	"gpu-life/internal/telemetry"
)

func main() {
	flags := config.NewFlags()
	flags.Bind(flag.CommandLine)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	flags.Apply(cfg, flag.CommandLine)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, flags); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, flags *config.Flags) error {
	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	edge, err := brush.ParseEdge(cfg.Brush.Edge)
	if err != nil {
		return err
	}

	session := sim.NewSession(sim.Options{
		Width:     cfg.Derived.GridW,
		Height:    cfg.Derived.GridH,
		Seed:      cfg.Grid.Seed,
		TPS:       cfg.Simulation.TPS,
		Backend:   backend,
		Brush:     brush.Editor{Radius: cfg.Brush.Radius, Edge: edge},
		Collector: telemetry.NewCollector(cfg.Telemetry.Window),
	})
	defer session.Close()

	if flags.Headless {
		return runHeadless(cfg, flags, session)
	}
	return runGUI(cfg, session)
}

func newBackend(cfg *config.Config) (compute.Backend, error) {
	factory, ok := compute.Backends()[cfg.Compute.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown compute backend %q", cfg.Compute.Backend)
	}
	return factory(compute.BackendOptions{
		Workers:        cfg.Compute.Workers,
		MaxBufferBytes: cfg.Compute.MaxBufferBytes,
	}), nil
}

func runHeadless(cfg *config.Config, flags *config.Flags, session *sim.Session) error {
	if err := session.TakeError(); err != nil {
		slog.Warn(sim.ErrorMessage)
	}

	out, err := telemetry.NewOutput(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	window := int64(cfg.Telemetry.Window)
	if window <= 0 {
		window = telemetry.DefaultWindow
	}
	col := session.Collector()
	session.Clock().AfterTick = func(bool) {
		if col.Ticks()%window != 0 {
			return
		}
		stats := col.Stats()
		if flags.LogStats {
			slog.Info("stats", "stats", stats, "population", session.Grid().Population())
		}
		if err := out.WriteStats(stats.ToCSV(session.Grid().Population())); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("running headless",
		"width", cfg.Derived.GridW,
		"height", cfg.Derived.GridH,
		"tps", cfg.Simulation.TPS,
		"backend", cfg.Compute.Backend,
		"max_ticks", flags.MaxTicks,
	)
	ticks, err := session.Clock().Run(ctx, nil, flags.MaxTicks)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("simulation finished", "ticks", ticks, "stats", col.Stats())
	return nil
}
