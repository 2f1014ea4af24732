package trigger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nullvora/mabor-bench/internal/engine"
	"github.com/Nullvora/mabor-bench/internal/model"
)

const sampleTrigger = `
benches:
  - matmul
  - conv2d
backends:
  - wgpu
  - ndarray
dtypes:
  - f32
  - f16
versions:
  - "0.18.0"
  - main
repetitions: 20
warmup: 5
timeout: 30m
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleTrigger))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sel := f.Selection()
	if len(sel.Benches) != 2 || sel.Benches[0] != "matmul" {
		t.Errorf("benches = %v", sel.Benches)
	}
	if len(sel.Versions) != 2 {
		t.Fatalf("versions = %v", sel.Versions)
	}
	if sel.Versions[0].Kind != model.VersionPublished || sel.Versions[0].Value != "0.18.0" {
		t.Errorf("first version = %+v, want published 0.18.0", sel.Versions[0])
	}
	if sel.Versions[1].Kind != model.VersionBranch {
		t.Errorf("second version = %+v, want branch", sel.Versions[1])
	}

	opts := f.Apply(engine.Options{Repetitions: 10, WarmUp: 3})
	if opts.Repetitions != 20 || opts.WarmUp != 5 {
		t.Errorf("overrides not applied: %+v", opts)
	}
	if opts.GlobalTimeout != 30*time.Minute {
		t.Errorf("timeout = %v, want 30m", opts.GlobalTimeout)
	}
}

func TestParseDefaults(t *testing.T) {
	f, err := Parse([]byte("benches: [matmul]\nbackends: [ndarray]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sel := f.Selection()
	if len(sel.Versions) != 1 || sel.Versions[0].Kind != model.VersionBranch || sel.Versions[0].Value != "main" {
		t.Errorf("versions = %v, want branch main", sel.Versions)
	}
	if len(sel.Dtypes) != 1 || sel.Dtypes[0] != model.DtypeF32 {
		t.Errorf("dtypes = %v, want [f32]", sel.Dtypes)
	}

	opts := f.Apply(engine.Options{Repetitions: 10, WarmUp: 3, Parallelism: 2})
	if opts.Repetitions != 10 || opts.WarmUp != 3 || opts.Parallelism != 2 {
		t.Errorf("zero overrides should leave opts unchanged: %+v", opts)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("benches: [matmul]\nbackends: [ndarray]\nbenchs: [typo]\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid trigger file") {
		t.Fatalf("err = %v, want unknown-field rejection", err)
	}
}

func TestParseRejectsEmptySelection(t *testing.T) {
	if _, err := Parse([]byte("backends: [ndarray]\n")); err == nil {
		t.Error("missing benches should be rejected")
	}
	if _, err := Parse([]byte("benches: [matmul]\n")); err == nil {
		t.Error("missing backends should be rejected")
	}
}

func TestParseRejectsBadTimeout(t *testing.T) {
	_, err := Parse([]byte("benches: [matmul]\nbackends: [ndarray]\ntimeout: soon\n"))
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("err = %v, want timeout rejection", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nightly.yaml")
	if err := os.WriteFile(path, []byte(sampleTrigger), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Benches) != 2 {
		t.Errorf("benches = %v", f.Benches)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
}
