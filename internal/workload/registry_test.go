package workload_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/Nullvora/mabor-bench/internal/buildcache"
	"github.com/Nullvora/mabor-bench/internal/model"
	"github.com/Nullvora/mabor-bench/internal/workload"
)

func TestRegistryResolve(t *testing.T) {
	r := workload.NewRegistry()
	suite := workload.NewProcSuite("unary", []string{"tanh"})
	r.Register("unary", suite)

	got, err := r.Resolve("unary")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != suite {
		t.Error("Resolve returned a different suite")
	}

	if _, err := r.Resolve("missing"); err == nil {
		t.Error("Resolve of unregistered suite should fail")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := workload.DefaultRegistry()
	ids := r.List()
	if !slices.IsSorted(ids) {
		t.Errorf("List() not sorted: %v", ids)
	}
	if !slices.Contains(ids, "matmul") {
		t.Errorf("List() missing matmul: %v", ids)
	}
}

func TestBackendSet(t *testing.T) {
	set := workload.DefaultBackends()

	b, err := set.Resolve("wgpu-fusion")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !b.Exclusive {
		t.Error("wgpu-fusion should be hardware-exclusive")
	}
	if !b.Supports(model.DtypeF32) {
		t.Error("wgpu-fusion should support f32")
	}

	cpu, err := set.Resolve("ndarray")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cpu.Exclusive {
		t.Error("ndarray should not be hardware-exclusive")
	}
	if cpu.Supports(model.DtypeBF16) {
		t.Error("ndarray should not support bf16")
	}

	if _, err := set.Resolve("tpu"); err == nil {
		t.Error("Resolve of unknown backend should fail")
	}
}

// writeSuiteBinary drops a shell script standing in for a built suite binary.
func writeSuiteBinary(t *testing.T, dir, name, script string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write suite binary: %v", err)
	}
}

func TestProcSuiteRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub binary")
	}

	dir := t.TempDir()
	writeSuiteBinary(t, dir, "unary", "echo 8592507")
	art := buildcache.Artifact{Dir: dir}

	suite := workload.NewProcSuite("unary", []string{"tanh"})
	d, err := suite.Run(context.Background(), "tanh", art, "wgpu", model.DtypeF32)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d != 8592507*time.Nanosecond {
		t.Errorf("duration = %v, want 8.592507ms", d)
	}
}

func TestProcSuiteRunInvalidOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub binary")
	}

	dir := t.TempDir()
	writeSuiteBinary(t, dir, "unary", "echo not-a-number")
	art := buildcache.Artifact{Dir: dir}

	suite := workload.NewProcSuite("unary", []string{"tanh"})
	if _, err := suite.Run(context.Background(), "tanh", art, "wgpu", model.DtypeF32); err == nil {
		t.Fatal("invalid timing output should be an error")
	}
}

func TestProcSuiteRunCrash(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub binary")
	}

	dir := t.TempDir()
	writeSuiteBinary(t, dir, "unary", "exit 2")
	art := buildcache.Artifact{Dir: dir}

	suite := workload.NewProcSuite("unary", []string{"tanh"})
	if _, err := suite.Run(context.Background(), "tanh", art, "wgpu", model.DtypeF32); err == nil {
		t.Fatal("crashing case should be an error")
	}
}
