// Package engine provides the matrix execution engine. It expands the
// selected benches, backends, versions, and dtypes into an ordered sequence
// of run units, executes them through a bounded worker pool with per-unit
// failure containment, and packages the collected measurements into a
// finalized report.
package engine
