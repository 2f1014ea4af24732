package report

import (
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// Record is the flat per-unit upload payload. The structure is flat so the
// remote store can query it directly; summary statistics are reported in
// microseconds, raw durations in nanoseconds.
type Record struct {
	Backend      string                `json:"backend"`
	Device       string                `json:"device"`
	Dtype        string                `json:"dtype"`
	MaborVersion string                `json:"maborVersion"`
	GitHash      string                `json:"gitHash"`
	Name         string                `json:"name"`
	Status       string                `json:"status"`
	Reason       string                `json:"reason,omitempty"`
	Max          int64                 `json:"max"`
	Mean         int64                 `json:"mean"`
	Median       int64                 `json:"median"`
	Min          int64                 `json:"min"`
	StdDev       *int64                `json:"stdDev"`
	NumSamples   int                   `json:"numSamples"`
	RawDurations []time.Duration       `json:"rawDurations"`
	SystemInfo   model.EnvironmentInfo `json:"systemInfo"`
	Timestamp    int64                 `json:"timestamp"`
}

// Flatten converts a finalized report into upload records, one per
// measurement, in matrix order.
func Flatten(r *model.Report, backends map[string]model.Backend) []Record {
	records := make([]Record, 0, len(r.Measurements))
	ts := r.CreatedAt.UnixMilli()

	for _, m := range r.Measurements {
		rec := Record{
			Backend:      m.Unit.BackendID,
			Dtype:        m.Unit.Dtype,
			MaborVersion: m.Unit.Version.Spec.String(),
			GitHash:      m.Unit.Version.Hash,
			Name:         m.Unit.BenchID,
			Status:       m.Status,
			Reason:       m.Reason,
			NumSamples:   len(m.Samples),
			RawDurations: m.Samples,
			SystemInfo:   r.Environment,
			Timestamp:    ts,
		}
		if b, ok := backends[m.Unit.BackendID]; ok {
			rec.Device = b.Device
		}
		if m.Stats != nil {
			rec.Max = m.Stats.Max.Microseconds()
			rec.Mean = m.Stats.Mean.Microseconds()
			rec.Median = m.Stats.Median.Microseconds()
			rec.Min = m.Stats.Min.Microseconds()
			if m.Stats.StdDev != nil {
				sd := m.Stats.StdDev.Microseconds()
				rec.StdDev = &sd
			}
		}
		records = append(records, rec)
	}
	return records
}
