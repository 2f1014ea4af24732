package buildcache

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// stderrExcerptBytes bounds the diagnostic excerpt attached to BuildError.
const stderrExcerptBytes = 4096

// ExecBuilder builds benchmark artifacts by checking sources out under a
// work directory and invoking the framework's build command in them. Remote
// sources are cloned once per commit hash; local sources build in place.
type ExecBuilder struct {
	// WorkDir is the cache root holding checkouts and built artifacts.
	WorkDir string
	// Command is the build command argv, run in the source directory with
	// MABOR_BENCH_BACKEND, MABOR_BENCH_DTYPE, and MABOR_BENCH_OUT set.
	Command []string
	Logger  *slog.Logger
}

// NewExecBuilder creates a builder with the default build command.
func NewExecBuilder(workDir string, logger *slog.Logger) *ExecBuilder {
	return &ExecBuilder{
		WorkDir: workDir,
		Command: []string{"mabor", "build", "--benches"},
		Logger:  logger,
	}
}

// Build implements Builder.
func (b *ExecBuilder) Build(ctx context.Context, src model.ResolvedSource, backend, dtype string) (Artifact, error) {
	key := Key{Hash: src.Hash, Backend: backend, Dtype: dtype}

	srcDir, err := b.checkout(ctx, src)
	if err != nil {
		return Artifact{}, &BuildError{Key: key, StderrExcerpt: err.Error()}
	}

	outDir := filepath.Join(b.WorkDir, "artifacts", key.String())
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Artifact{}, &BuildError{Key: key, StderrExcerpt: err.Error()}
	}

	cmd := exec.CommandContext(ctx, b.Command[0], b.Command[1:]...)
	cmd.Dir = srcDir
	cmd.Env = append(os.Environ(),
		"MABOR_BENCH_BACKEND="+backend,
		"MABOR_BENCH_DTYPE="+dtype,
		"MABOR_BENCH_OUT="+outDir,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Artifact{}, &BuildError{Key: key, StderrExcerpt: excerpt(stderr.Bytes(), err)}
	}

	return Artifact{Key: key, Dir: outDir, BuiltAt: time.Now().UTC()}, nil
}

// checkout materializes the source for a build. Remote sources get a
// shallow per-hash checkout reused by every (backend, dtype) pair of the
// same version.
func (b *ExecBuilder) checkout(ctx context.Context, src model.ResolvedSource) (string, error) {
	if src.Kind == model.SourceLocal {
		return src.Location, nil
	}

	dir := filepath.Join(b.WorkDir, "src", src.Hash)
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return dir, nil
	}

	b.Logger.Info("fetching source", "hash", src.ShortHash(), "remote", src.Location)
	steps := [][]string{
		{"clone", "--no-checkout", src.Location, dir},
		{"-C", dir, "checkout", "--detach", src.Hash},
	}
	for _, args := range steps {
		out, err := exec.CommandContext(ctx, "git", args...).CombinedOutput()
		if err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("git %s: %s", args[0], excerpt(out, err))
		}
	}
	return dir, nil
}

func excerpt(out []byte, err error) string {
	s := string(bytes.TrimSpace(out))
	if len(s) > stderrExcerptBytes {
		s = s[len(s)-stderrExcerptBytes:]
	}
	if s == "" {
		return err.Error()
	}
	return s
}
