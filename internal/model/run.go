package model

import (
	"fmt"
	"time"
)

// Measurement status constants.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Skip reason constants.
const (
	SkipUnsupported = "unsupported"
	SkipTimeout     = "timeout"
	SkipInterrupted = "interrupted"
)

// Dtype constants for the data types the framework can run benchmarks with.
const (
	DtypeF32  = "f32"
	DtypeF16  = "f16"
	DtypeBF16 = "bf16"
)

// RunUnit uniquely identifies one executable measurement of the run matrix.
// Units are created during matrix expansion, are immutable, and are consumed
// exactly once per execution pass.
type RunUnit struct {
	BenchID   string         `json:"bench_id"`
	BackendID string         `json:"backend_id"`
	Dtype     string         `json:"dtype"`
	Version   ResolvedSource `json:"version"`
}

// String renders the unit identifier used in logs and error messages.
func (u RunUnit) String() string {
	return fmt.Sprintf("%s/%s/%s@%s", u.BenchID, u.BackendID, u.Dtype, u.Version.Spec)
}

// Stats holds the summary statistics computed from a measurement's samples.
// StdDev is nil when fewer than 2 samples remain after warm-up discard,
// since the unbiased sample formula is undefined there.
type Stats struct {
	Mean   time.Duration  `json:"mean"`
	Median time.Duration  `json:"median"`
	Min    time.Duration  `json:"min"`
	Max    time.Duration  `json:"max"`
	StdDev *time.Duration `json:"std_dev"`
}

// Measurement is the outcome of executing one RunUnit. Samples hold the
// post-warm-up wall-clock durations in the order they were taken; they
// serialize as integer nanoseconds, so statistics survive a round trip
// losslessly.
type Measurement struct {
	Unit    RunUnit         `json:"unit"`
	Status  string          `json:"status"`
	Reason  string          `json:"reason,omitempty"`
	Samples []time.Duration `json:"samples,omitempty"`
	Stats   *Stats          `json:"stats,omitempty"`
}

// Failed constructs a failed measurement for the given unit.
func Failed(unit RunUnit, reason string) Measurement {
	return Measurement{Unit: unit, Status: StatusFailed, Reason: reason}
}

// Skipped constructs a skipped measurement for the given unit.
func Skipped(unit RunUnit, reason string) Measurement {
	return Measurement{Unit: unit, Status: StatusSkipped, Reason: reason}
}
