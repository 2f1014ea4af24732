package model

import "slices"

// Backend describes a hardware/execution target the framework can run
// tensor operations on.
type Backend struct {
	ID     string   `json:"id"`
	Device string   `json:"device"`
	Dtypes []string `json:"dtypes"`

	// Exclusive marks backends that own the accelerator while measuring.
	// The executor serializes units on exclusive backends regardless of
	// configured parallelism so concurrent measurements never interfere.
	Exclusive bool `json:"exclusive"`
}

// Supports reports whether the backend can run benchmarks with the given
// data type.
func (b Backend) Supports(dtype string) bool {
	return slices.Contains(b.Dtypes, dtype)
}
