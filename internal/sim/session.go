package sim

import (
	"log/slog"
	"time"

	"gpu-life/internal/brush"
	"gpu-life/internal/compute"
	"gpu-life/internal/core"
	"gpu-life/internal/telemetry"
)

// ErrorMessage is shown once to the user when the engine cannot be built.
const ErrorMessage = "Failed to initialize life. Your device may be incompatible."

// Options configures a Session.
type Options struct {
	Width, Height int
	// Seed 0 draws a fresh board each run.
	Seed    int64
	TPS     int
	Backend compute.Backend
	Brush   brush.Editor
	// Collector may be nil.
	Collector *telemetry.Collector
	Logger    *slog.Logger
}

// Session is one running simulation. All methods must be called from the
// goroutine that drives the frame loop.
type Session struct {
	log    *slog.Logger
	rng    *core.RNG
	grid   *core.Grid
	engine *compute.Engine
	clock  *Clock
	brush  brush.Editor
	stats  *telemetry.Collector
	tps    int

	err      error
	errTaken bool
}

// NewSession builds the grid and the engine. Engine construction failure is
// not fatal: the grid stays editable and visible, ticks are skipped and the
// failure is reported once through TakeError.
func NewSession(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		log:   log,
		rng:   core.NewRNG(opts.Seed),
		brush: opts.Brush,
		stats: opts.Collector,
	}
	s.grid = core.NewGrid(opts.Width, opts.Height, s.rng)

	eng, err := compute.New(opts.Backend, opts.Width, opts.Height, compute.WithLogger(log))
	var stepper Stepper
	if err != nil {
		s.err = err
		log.Error("compute engine unavailable", "error", err, "width", opts.Width, "height", opts.Height)
	} else {
		s.engine = eng
		stepper = eng
		log.Info("compute engine ready",
			"device", eng.DeviceName(),
			"width", s.grid.W,
			"height", s.grid.H,
			"groups_x", eng.Geometry().Groups.W,
			"groups_y", eng.Geometry().Groups.H,
		)
	}
	s.clock = NewClock(opts.TPS, stepper, s.grid)
	s.clock.SetCollector(s.stats)
	s.tps = int(time.Second / s.clock.Interval())
	return s
}

// Err returns the construction error, if any.
func (s *Session) Err() error { return s.err }

// TakeError returns the construction error the first time it is called and
// nil afterwards.
func (s *Session) TakeError() error {
	if s.errTaken {
		return nil
	}
	s.errTaken = true
	return s.err
}

// Grid returns the live grid.
func (s *Session) Grid() *core.Grid { return s.grid }

// Engine returns the engine, or nil when construction failed.
func (s *Session) Engine() *compute.Engine { return s.engine }

// Clock returns the tick clock.
func (s *Session) Clock() *Clock { return s.clock }

// Collector returns the telemetry collector, which may be nil.
func (s *Session) Collector() *telemetry.Collector { return s.stats }

// Brush returns the brush in use.
func (s *Session) Brush() brush.Editor { return s.brush }

// Paint applies the brush at a pointer position within a view of size bounds.
func (s *Session) Paint(pointer, bounds core.Vec) int {
	n := s.brush.Apply(s.grid, pointer, bounds)
	s.stats.RecordBrush(n)
	return n
}

// Advance forwards a frame to the clock.
func (s *Session) Advance(active bool) bool { return s.clock.Advance(active) }

// Tick runs a single tick now.
func (s *Session) Tick(active bool) bool { return s.clock.Tick(active) }

// Reseed re-rolls every cell.
func (s *Session) Reseed() { s.grid.Randomize(s.rng) }

// Stats returns the current telemetry.
func (s *Session) Stats() telemetry.Stats { return s.stats.Stats() }

// Close releases all device resources. It is safe to call more than once.
func (s *Session) Close() {
	if s.engine != nil {
		s.engine.Close()
	}
}

