// Package sysinfo captures the environment metadata attached to every
// report: OS, hardware identifiers, and toolchain versions. Everything is
// best-effort; a probe that fails simply leaves its field empty.
package sysinfo

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// Capture collects environment info once per process run. The result is
// shared read-only by every measurement in the batch.
func Capture(ctx context.Context) model.EnvironmentInfo {
	env := model.EnvironmentInfo{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Toolchain: make(map[string]string),
		Timestamp: time.Now().UTC(),
	}

	if out, err := run(ctx, "uname", "-r"); err == nil {
		env.Kernel = out
	}
	if f, err := os.Open("/proc/cpuinfo"); err == nil {
		env.CPUs = parseCPUModels(f)
		f.Close()
	}
	if out, err := run(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader"); err == nil {
		env.GPUs = splitLines(out)
	}
	if out, err := run(ctx, "git", "--version"); err == nil {
		env.Toolchain["git"] = out
	}
	if out, err := run(ctx, "mabor", "--version"); err == nil {
		env.Toolchain["mabor"] = out
	}

	return env
}

func run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// parseCPUModels extracts the distinct "model name" entries from
// /proc/cpuinfo-formatted input, sorted for stable output.
func parseCPUModels(r io.Reader) []string {
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(key) != "model name" {
			continue
		}
		seen[strings.TrimSpace(value)] = true
	}

	models := make([]string, 0, len(seen))
	for m := range seen {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

func splitLines(s string) []string {
	var lines []string
	for line := range strings.Lines(s) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
