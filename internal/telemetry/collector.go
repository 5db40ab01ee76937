// Package telemetry measures step latency and tick accounting.
package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of step samples kept, one second at 30 TPS.
const DefaultWindow = 30

// Collector tracks step latencies over a rolling window plus running
// counters. A nil *Collector accepts every call and records nothing.
type Collector struct {
	windowSize  int
	samples     []float64 // microseconds
	writeIndex  int
	sampleCount int

	ticks        int64
	steps        int64
	skipped      int64
	dropped      int64
	brushSamples int64
	cellsPainted int64

	started time.Time
	now     func() time.Time
}

// NewCollector creates a collector averaging over windowSize steps.
func NewCollector(windowSize int) *Collector {
	if windowSize < 1 {
		windowSize = DefaultWindow
	}
	return &Collector{
		windowSize: windowSize,
		samples:    make([]float64, windowSize),
		now:        time.Now,
	}
}

func (c *Collector) begin() {
	if c.started.IsZero() {
		c.started = c.now()
	}
}

// RecordStep records a tick that ran the engine for d.
func (c *Collector) RecordStep(d time.Duration) {
	if c == nil {
		return
	}
	c.begin()
	c.ticks++
	c.steps++
	c.samples[c.writeIndex] = float64(d) / float64(time.Microsecond)
	c.writeIndex = (c.writeIndex + 1) % c.windowSize
	if c.sampleCount < c.windowSize {
		c.sampleCount++
	}
}

// RecordSkip records a tick that did not step.
func (c *Collector) RecordSkip() {
	if c == nil {
		return
	}
	c.begin()
	c.ticks++
	c.skipped++
}

// RecordDrop records a tick whose step returned its input unchanged.
func (c *Collector) RecordDrop() {
	if c == nil {
		return
	}
	c.begin()
	c.ticks++
	c.dropped++
}

// RecordBrush records one pointer sample and the cells it set.
func (c *Collector) RecordBrush(cells int) {
	if c == nil {
		return
	}
	c.brushSamples++
	c.cellsPainted += int64(cells)
}

// Ticks returns the total number of ticks seen.
func (c *Collector) Ticks() int64 {
	if c == nil {
		return 0
	}
	return c.ticks
}

// Stats holds aggregated statistics for the current window.
type Stats struct {
	Ticks        int64
	Steps        int64
	Skipped      int64
	Dropped      int64
	BrushSamples int64
	CellsPainted int64

	MeanStepUS float64
	P50StepUS  float64
	P95StepUS  float64
	MaxStepUS  float64

	// StepsPerSecond is measured against wall time since the first tick.
	StepsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (c *Collector) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{
		Ticks:        c.ticks,
		Steps:        c.steps,
		Skipped:      c.skipped,
		Dropped:      c.dropped,
		BrushSamples: c.brushSamples,
		CellsPainted: c.cellsPainted,
	}
	if !c.started.IsZero() {
		if elapsed := c.now().Sub(c.started); elapsed > 0 {
			s.StepsPerSecond = float64(c.steps) / elapsed.Seconds()
		}
	}
	if c.sampleCount == 0 {
		return s
	}

	window := slices.Clone(c.samples[:c.sampleCount])
	slices.Sort(window)
	s.MeanStepUS = stat.Mean(window, nil)
	s.P50StepUS = stat.Quantile(0.5, stat.Empirical, window, nil)
	s.P95StepUS = stat.Quantile(0.95, stat.Empirical, window, nil)
	s.MaxStepUS = floats.Max(window)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("ticks", s.Ticks),
		slog.Int64("steps", s.Steps),
		slog.Int64("skipped", s.Skipped),
		slog.Int64("dropped", s.Dropped),
		slog.Int64("brush_samples", s.BrushSamples),
		slog.Float64("mean_step_us", s.MeanStepUS),
		slog.Float64("p95_step_us", s.P95StepUS),
		slog.Float64("max_step_us", s.MaxStepUS),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	)
}

// StatsCSV is a flat struct for CSV export of window stats.
type StatsCSV struct {
	Tick           int64   `csv:"tick"`
	Steps          int64   `csv:"steps"`
	Skipped        int64   `csv:"skipped"`
	Dropped        int64   `csv:"dropped"`
	BrushSamples   int64   `csv:"brush_samples"`
	CellsPainted   int64   `csv:"cells_painted"`
	Population     int     `csv:"population"`
	MeanStepUS     float64 `csv:"mean_step_us"`
	P50StepUS      float64 `csv:"p50_step_us"`
	P95StepUS      float64 `csv:"p95_step_us"`
	MaxStepUS      float64 `csv:"max_step_us"`
	StepsPerSecond float64 `csv:"steps_per_sec"`
}

// ToCSV flattens the stats together with the grid population at that tick.
func (s Stats) ToCSV(population int) StatsCSV {
	return StatsCSV{
		Tick:           s.Ticks,
		Steps:          s.Steps,
		Skipped:        s.Skipped,
		Dropped:        s.Dropped,
		BrushSamples:   s.BrushSamples,
		CellsPainted:   s.CellsPainted,
		Population:     population,
		MeanStepUS:     s.MeanStepUS,
		P50StepUS:      s.P50StepUS,
		P95StepUS:      s.P95StepUS,
		MaxStepUS:      s.MaxStepUS,
		StepsPerSecond: s.StepsPerSecond,
	}
}
