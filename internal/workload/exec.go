package workload

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nullvora/mabor-bench/internal/buildcache"
)

// ProcSuite runs benchmark cases by spawning the suite's binary from the
// built artifact. The invocation contract: the binary is named after the
// bench id, takes --bench/--backend/--dtype flags, and prints the measured
// wall time as a single integer nanosecond value on stdout.
type ProcSuite struct {
	id    string
	cases []string
}

// NewProcSuite creates a process-spawning suite with the given case ids.
func NewProcSuite(id string, cases []string) *ProcSuite {
	return &ProcSuite{id: id, cases: cases}
}

// Enumerate implements Workload.
func (s *ProcSuite) Enumerate() []string {
	out := make([]string, len(s.cases))
	copy(out, s.cases)
	return out
}

// Run implements Workload by executing one case of the artifact's suite
// binary and parsing the reported duration.
func (s *ProcSuite) Run(ctx context.Context, caseID string, art buildcache.Artifact, backendID, dtype string) (time.Duration, error) {
	bin := filepath.Join(art.Dir, s.id)
	cmd := exec.CommandContext(ctx, bin, "--bench", caseID, "--backend", backendID, "--dtype", dtype)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("case %s: %w", caseID, err)
	}

	ns, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil || ns < 0 {
		return 0, fmt.Errorf("case %s: invalid timing output %q", caseID, strings.TrimSpace(string(out)))
	}
	return time.Duration(ns), nil
}
