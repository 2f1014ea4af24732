// Package workload defines the uniform contract every benchmark suite
// implements, the registry the executor resolves suites through, and the
// catalog of hardware backends, along with the domain types exchanged
// between the execution engine and suite implementations.
package workload

import (
	"context"
	"time"

	"github.com/Nullvora/mabor-bench/internal/buildcache"
)

// Workload is the interface a benchmark suite implements. The executor
// depends only on this contract, never on concrete suite types; any suite
// implementing it is runnable.
type Workload interface {
	// Enumerate lists the suite's case ids in execution order.
	Enumerate() []string

	// Run executes one case against a built artifact and returns a single
	// wall-time sample. The context carries deadlines and cancellation.
	Run(ctx context.Context, caseID string, art buildcache.Artifact, backendID, dtype string) (time.Duration, error)
}
