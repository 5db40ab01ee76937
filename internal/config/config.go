// Package config provides configuration loading for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gpu-life/internal/compute"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Window     WindowConfig     `yaml:"window"`
	Simulation SimulationConfig `yaml:"simulation"`
	Compute    ComputeConfig    `yaml:"compute"`
	Brush      BrushConfig      `yaml:"brush"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig sizes and seeds the board.
type GridConfig struct {
	Width    int   `yaml:"width"`     // 0 derives from window.width / cell_size
	Height   int   `yaml:"height"`    // 0 derives from window.height / cell_size
	CellSize int   `yaml:"cell_size"` // screen pixels per cell
	Seed     int64 `yaml:"seed"`      // 0 picks a fresh board each run
}

// WindowConfig describes the GUI window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// SimulationConfig holds the tick and frame rates.
type SimulationConfig struct {
	TPS       int `yaml:"tps"`
	FrameRate int `yaml:"frame_rate"`
}

// ComputeConfig selects and limits the compute device.
type ComputeConfig struct {
	Backend        string `yaml:"backend"`
	Workers        int    `yaml:"workers"`
	MaxBufferBytes int    `yaml:"max_buffer_bytes"`
}

// BrushConfig shapes the paint brush.
type BrushConfig struct {
	Radius int    `yaml:"radius"`
	Edge   string `yaml:"edge"` // abandon or clip
}

// TelemetryConfig controls stats collection and output.
type TelemetryConfig struct {
	Window    int    `yaml:"window"` // step samples per stats window
	OutputDir string `yaml:"output_dir"`
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	GridW, GridH int
	TickInterval time.Duration
}

// Load reads configuration from the given path, merging over the embedded
// defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	cell := c.Grid.CellSize
	if cell <= 0 {
		cell = 1
	}
	c.Derived.GridW = c.Grid.Width
	if c.Derived.GridW == 0 {
		c.Derived.GridW = c.Window.Width / cell
	}
	c.Derived.GridH = c.Grid.Height
	if c.Derived.GridH == 0 {
		c.Derived.GridH = c.Window.Height / cell
	}
	if c.Simulation.TPS > 0 {
		c.Derived.TickInterval = time.Second / time.Duration(c.Simulation.TPS)
	}
}

// Validate reports the first unusable setting. Backend names are checked
// against the backends registered with the compute package.
func (c *Config) Validate() error {
	switch {
	case c.Grid.CellSize <= 0:
		return fmt.Errorf("grid.cell_size must be positive, got %d", c.Grid.CellSize)
	case c.Derived.GridW <= 0 || c.Derived.GridH <= 0:
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Derived.GridW, c.Derived.GridH)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Simulation.TPS <= 0:
		return fmt.Errorf("simulation.tps must be positive, got %d", c.Simulation.TPS)
	case c.Simulation.FrameRate <= 0:
		return fmt.Errorf("simulation.frame_rate must be positive, got %d", c.Simulation.FrameRate)
	case c.Brush.Radius < 0:
		return fmt.Errorf("brush.radius must not be negative, got %d", c.Brush.Radius)
	case c.Brush.Edge != "abandon" && c.Brush.Edge != "clip":
		return fmt.Errorf("brush.edge must be abandon or clip, got %q", c.Brush.Edge)
	case compute.Backends()[c.Compute.Backend] == nil:
		return fmt.Errorf("compute.backend must be one of %v, got %q", compute.BackendNames(), c.Compute.Backend)
	case c.Compute.Workers < 0:
		return fmt.Errorf("compute.workers must not be negative, got %d", c.Compute.Workers)
	}
	return nil
}

// WriteYAML saves the config to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
