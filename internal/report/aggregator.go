// Package report collects per-unit measurements into a finalized Report and
// computes their summary statistics. The aggregator performs packaging only;
// it never re-runs or reorders anything.
package report

import (
	"errors"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// ErrFinalized is returned when adding to an already-finalized aggregator.
var ErrFinalized = errors.New("report already finalized")

// Aggregator accumulates measurements in matrix order and freezes them into
// a Report. Not safe for concurrent use; the executor adds sequentially.
type Aggregator struct {
	measurements []model.Measurement
	finalized    bool
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one measurement, attaching summary statistics computed from
// its samples. Measurements without samples (failed, skipped) carry no stats.
func (a *Aggregator) Add(m model.Measurement) error {
	if a.finalized {
		return ErrFinalized
	}
	m.Stats = Summarize(m.Samples)
	a.measurements = append(a.measurements, m)
	return nil
}

// Finalize freezes the collected measurements into a Report with the given
// environment attached. Further Add calls fail with ErrFinalized.
func (a *Aggregator) Finalize(env model.EnvironmentInfo) *model.Report {
	a.finalized = true
	return &model.Report{
		ID:           model.NewID(),
		Environment:  env,
		Measurements: a.measurements,
		CreatedAt:    time.Now().UTC(),
	}
}
