package config

import "flag"

// Flags represents the command-line parameters for the application. Values
// given on the command line win over the configuration file.
type Flags struct {
	ConfigPath string
	Headless   bool
	MaxTicks   int
	LogStats   bool

	OutputDir string
	Backend   string
	Seed      int64
	TPS       int
}

// NewFlags returns Flags populated with defaults.
func NewFlags() *Flags {
	return &Flags{Backend: "opencl", TPS: 30}
}

// Bind attaches the flags to the provided FlagSet.
func (f *Flags) Bind(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", f.ConfigPath, "path to config YAML file (empty = use defaults)")
	fs.BoolVar(&f.Headless, "headless", f.Headless, "run without a window")
	fs.IntVar(&f.MaxTicks, "max-ticks", f.MaxTicks, "stop after this many ticks (0 = unlimited)")
	fs.BoolVar(&f.LogStats, "log-stats", f.LogStats, "log step statistics every telemetry window")
	fs.StringVar(&f.OutputDir, "output-dir", f.OutputDir, "directory for steps.csv and config.yaml (empty = disabled)")
	fs.StringVar(&f.Backend, "backend", f.Backend, "compute backend (opencl or soft)")
	fs.Int64Var(&f.Seed, "seed", f.Seed, "board seed (0 = random)")
	fs.IntVar(&f.TPS, "tps", f.TPS, "ticks per second")
}

// Apply copies the flags that were set explicitly on fs into cfg.
func (f *Flags) Apply(cfg *Config, fs *flag.FlagSet) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "output-dir":
			cfg.Telemetry.OutputDir = f.OutputDir
		case "backend":
			cfg.Compute.Backend = f.Backend
		case "seed":
			cfg.Grid.Seed = f.Seed
		case "tps":
			cfg.Simulation.TPS = f.TPS
		}
	})
	cfg.computeDerived()
}
