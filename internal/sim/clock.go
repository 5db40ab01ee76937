// Package sim ties the grid, the compute engine, the brush and the fixed-rate
// clock into one running simulation.
package sim

import (
	"context"
	"time"

	"gpu-life/internal/core"
	"gpu-life/internal/telemetry"
)

// Stepper advances a whole grid by one generation. A stepper that cannot
// produce the next generation returns cur itself.
type Stepper interface {
	Step(cur []float32) []float32
}

// Clock fires ticks at a fixed rate. A tick steps the grid only when the
// caller reports the simulation active and a stepper is present.
type Clock struct {
	timer   *core.FixedStep
	stepper Stepper
	grid    *core.Grid
	stats   *telemetry.Collector
	now     func() time.Time

	// AfterTick, when set, runs after every tick with whether it stepped.
	AfterTick func(stepped bool)
}

// NewClock builds a clock for grid. stepper may be nil, in which case every
// tick is skipped.
func NewClock(tps int, stepper Stepper, grid *core.Grid) *Clock {
	return &Clock{
		timer:   core.NewFixedStep(tps),
		stepper: stepper,
		grid:    grid,
		now:     time.Now,
	}
}

// SetCollector routes tick accounting to col.
func (c *Clock) SetCollector(col *telemetry.Collector) { c.stats = col }

// SetTPS changes the tick rate.
func (c *Clock) SetTPS(tps int) { c.timer.SetTPS(tps) }

// Interval returns the duration of one tick.
func (c *Clock) Interval() time.Duration { return c.timer.Interval() }

// Advance is called once per frame and ticks when one is due. It reports
// whether the grid stepped.
func (c *Clock) Advance(active bool) bool {
	if !c.timer.ShouldStep() {
		return false
	}
	return c.Tick(active)
}

// Tick runs one tick immediately.
func (c *Clock) Tick(active bool) bool {
	stepped := c.tick(active)
	if c.AfterTick != nil {
		c.AfterTick(stepped)
	}
	return stepped
}

func (c *Clock) tick(active bool) bool {
	if c.stepper == nil || !active {
		c.stats.RecordSkip()
		return false
	}
	start := c.now()
	cur := c.grid.Cells()
	next := c.stepper.Step(cur)
	if len(cur) > 0 && len(next) > 0 && &next[0] == &cur[0] {
		c.stats.RecordDrop()
		return false
	}
	if err := c.grid.Replace(next); err != nil {
		c.stats.RecordSkip()
		return false
	}
	c.stats.RecordStep(c.now().Sub(start))
	return true
}

// Run drives ticks from a wall-clock ticker until ctx is done or maxTicks
// ticks have fired. maxTicks <= 0 means no limit. active is consulted on
// every tick; nil means always active.
func (c *Clock) Run(ctx context.Context, active func() bool, maxTicks int) (int, error) {
	ticker := time.NewTicker(c.timer.Interval())
	defer ticker.Stop()

	fired := 0
	for {
		select {
		case <-ctx.Done():
			return fired, ctx.Err()
		case <-ticker.C:
			c.Tick(active == nil || active())
			fired++
			if maxTicks > 0 && fired >= maxTicks {
				return fired, nil
			}
		}
	}
}
