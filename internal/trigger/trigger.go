// Package trigger parses declarative run definitions produced by CI glue.
// A trigger file names the bench/backend/dtype/version selection for a run
// plus optional execution overrides, so scheduled jobs carry their matrix
// in the repository instead of in pipeline flags.
package trigger

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Nullvora/mabor-bench/internal/engine"
	"github.com/Nullvora/mabor-bench/internal/model"
)

// File is the on-disk trigger document.
type File struct {
	Benches  []string `yaml:"benches"`
	Backends []string `yaml:"backends"`
	Dtypes   []string `yaml:"dtypes"`
	Versions []string `yaml:"versions"`

	// Execution overrides; zero values defer to config/flags.
	Repetitions int    `yaml:"repetitions"`
	WarmUp      int    `yaml:"warmup"`
	Parallelism int    `yaml:"parallelism"`
	Timeout     string `yaml:"timeout"`
}

// Load reads and validates a trigger file. Unknown fields are rejected so a
// typoed key fails the CI job instead of silently shrinking the matrix.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trigger file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a trigger document from raw YAML.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid trigger file: %w", err)
	}

	if len(f.Benches) == 0 {
		return nil, fmt.Errorf("trigger file selects no benches")
	}
	if len(f.Backends) == 0 {
		return nil, fmt.Errorf("trigger file selects no backends")
	}
	if f.Timeout != "" {
		if _, err := time.ParseDuration(f.Timeout); err != nil {
			return nil, fmt.Errorf("invalid trigger timeout %q: %w", f.Timeout, err)
		}
	}
	return &f, nil
}

// Selection converts the document into the selection the engine consumes.
// Versions default to "main" and dtypes to f32 when the file omits them.
func (f *File) Selection() engine.Selection {
	versions := f.Versions
	if len(versions) == 0 {
		versions = []string{"main"}
	}
	specs := make([]model.VersionSpec, 0, len(versions))
	for _, v := range versions {
		specs = append(specs, model.ParseVersionSpec(v))
	}

	dtypes := f.Dtypes
	if len(dtypes) == 0 {
		dtypes = []string{model.DtypeF32}
	}

	return engine.Selection{
		Benches:  f.Benches,
		Backends: f.Backends,
		Versions: specs,
		Dtypes:   dtypes,
	}
}

// Apply overlays the file's execution overrides onto opts.
func (f *File) Apply(opts engine.Options) engine.Options {
	if f.Repetitions > 0 {
		opts.Repetitions = f.Repetitions
	}
	if f.WarmUp > 0 {
		opts.WarmUp = f.WarmUp
	}
	if f.Parallelism > 0 {
		opts.Parallelism = f.Parallelism
	}
	if f.Timeout != "" {
		// Validated in Parse.
		d, _ := time.ParseDuration(f.Timeout)
		opts.GlobalTimeout = d
	}
	return opts
}
