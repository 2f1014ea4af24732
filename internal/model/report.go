package model

import "time"

// EnvironmentInfo describes the machine a report was produced on. It is
// captured once per process run and shared read-only by every measurement
// in the batch.
type EnvironmentInfo struct {
	OS        string            `json:"os"`
	Arch      string            `json:"arch"`
	Kernel    string            `json:"kernel,omitempty"`
	CPUs      []string          `json:"cpus"`
	GPUs      []string          `json:"gpus"`
	Toolchain map[string]string `json:"toolchain,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Report is the finalized, shareable output of one orchestration run.
// A report is frozen once built; sharing is all-or-nothing per invocation.
type Report struct {
	ID           string          `json:"id"`
	Environment  EnvironmentInfo `json:"environment"`
	Measurements []Measurement   `json:"measurements"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CountByStatus tallies measurements by final status.
func (r *Report) CountByStatus() map[string]int {
	counts := make(map[string]int)
	for _, m := range r.Measurements {
		counts[m.Status]++
	}
	return counts
}
