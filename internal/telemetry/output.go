package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// ConfigWriter is implemented by configurations that can persist themselves.
type ConfigWriter interface {
	WriteYAML(path string) error
}

// Output writes run artifacts into a directory. A nil *Output is a valid
// writer that discards everything.
type Output struct {
	dir           string
	stepsFile     *os.File
	headerWritten bool
}

// NewOutput creates dir and opens steps.csv inside it. It returns nil when
// dir is empty.
func NewOutput(dir string) (*Output, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "steps.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating steps.csv: %w", err)
	}
	return &Output{dir: dir, stepsFile: f}, nil
}

// Dir returns the output directory.
func (o *Output) Dir() string {
	if o == nil {
		return ""
	}
	return o.dir
}

// WriteConfig saves the effective configuration as config.yaml.
func (o *Output) WriteConfig(cfg ConfigWriter) error {
	if o == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(o.dir, "config.yaml"))
}

// WriteStats appends one row to steps.csv.
func (o *Output) WriteStats(row StatsCSV) error {
	if o == nil {
		return nil
	}
	records := []StatsCSV{row}
	if !o.headerWritten {
		if err := gocsv.Marshal(records, o.stepsFile); err != nil {
			return fmt.Errorf("writing steps: %w", err)
		}
		o.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, o.stepsFile); err != nil {
		return fmt.Errorf("writing steps: %w", err)
	}
	return nil
}

// Close flushes and closes the output files.
func (o *Output) Close() error {
	if o == nil {
		return nil
	}
	var errs []error
	if err := o.stepsFile.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := o.stepsFile.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
