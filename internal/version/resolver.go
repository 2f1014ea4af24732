// Package version resolves user-facing version specifiers into concrete,
// buildable source references. Remote specs are pinned to a commit hash via
// the git binary; results are memoized so resolution is idempotent within
// one orchestration run even if the remote moves.
package version

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// Sentinel errors for the user-correctable resolution failures.
var (
	ErrUnknownVersion = errors.New("unknown published version")
	ErrRefNotFound    = errors.New("ref not found on remote")
	ErrPathNotFound   = errors.New("local source path not found")
)

// ResolveError wraps a resolution failure with the spec that caused it so
// callers can retry precisely that operation.
type ResolveError struct {
	Spec model.VersionSpec
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Spec, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// runner executes a git invocation and returns its stdout. Injectable so
// tests can stub the network.
type runner func(ctx context.Context, args ...string) (string, error)

func gitRun(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// Resolver maps VersionSpecs to ResolvedSources against a single remote
// repository and a default local checkout directory. Safe for concurrent use.
type Resolver struct {
	remote   string
	localDir string
	run      runner

	mu    sync.Mutex
	cache map[model.VersionSpec]model.ResolvedSource
}

// NewResolver creates a resolver for the given remote URL and default local
// source directory.
func NewResolver(remote, localDir string) *Resolver {
	return &Resolver{
		remote:   remote,
		localDir: localDir,
		run:      gitRun,
		cache:    make(map[model.VersionSpec]model.ResolvedSource),
	}
}

// Resolve turns a spec into a concrete source reference. Identical specs
// return the identical ResolvedSource for the lifetime of the resolver.
func (r *Resolver) Resolve(ctx context.Context, spec model.VersionSpec) (model.ResolvedSource, error) {
	r.mu.Lock()
	if src, ok := r.cache[spec]; ok {
		r.mu.Unlock()
		return src, nil
	}
	r.mu.Unlock()

	var (
		src model.ResolvedSource
		err error
	)
	switch spec.Kind {
	case model.VersionPublished:
		src, err = r.resolvePublished(ctx, spec)
	case model.VersionBranch:
		src, err = r.resolveBranch(ctx, spec)
	case model.VersionCommit:
		src, err = r.resolveCommit(ctx, spec)
	case model.VersionLocal:
		src, err = r.resolveLocal(ctx, spec)
	default:
		err = fmt.Errorf("unrecognized version kind %q", spec.Kind)
	}
	if err != nil {
		return model.ResolvedSource{}, &ResolveError{Spec: spec, Err: err}
	}

	r.mu.Lock()
	r.cache[spec] = src
	r.mu.Unlock()
	return src, nil
}

// resolvePublished looks up the release tag for a semver on the remote.
func (r *Resolver) resolvePublished(ctx context.Context, spec model.VersionSpec) (model.ResolvedSource, error) {
	hash, err := r.lsRemote(ctx, "refs/tags/v"+spec.Value)
	if err != nil {
		return model.ResolvedSource{}, err
	}
	if hash == "" {
		return model.ResolvedSource{}, ErrUnknownVersion
	}
	return r.remoteSource(spec, hash), nil
}

// resolveBranch pins a branch head to its current commit hash.
func (r *Resolver) resolveBranch(ctx context.Context, spec model.VersionSpec) (model.ResolvedSource, error) {
	hash, err := r.lsRemote(ctx, "refs/heads/"+spec.Value)
	if err != nil {
		return model.ResolvedSource{}, err
	}
	if hash == "" {
		return model.ResolvedSource{}, ErrRefNotFound
	}
	return r.remoteSource(spec, hash), nil
}

// resolveCommit pins a commit hash. A full 40-char hash is taken as-is since
// the remote advertisement cannot name arbitrary commits; a short hash is
// matched against the advertised ref tips and fails with ErrRefNotFound when
// nothing matches.
func (r *Resolver) resolveCommit(ctx context.Context, spec model.VersionSpec) (model.ResolvedSource, error) {
	if len(spec.Value) == 40 {
		return r.remoteSource(spec, spec.Value), nil
	}

	out, err := r.run(ctx, "ls-remote", r.remote)
	if err != nil {
		return model.ResolvedSource{}, err
	}
	for line := range strings.Lines(out) {
		hash, _, ok := strings.Cut(line, "\t")
		if ok && strings.HasPrefix(hash, spec.Value) {
			return r.remoteSource(spec, hash), nil
		}
	}
	return model.ResolvedSource{}, ErrRefNotFound
}

// resolveLocal uses the configured or overridden local source directory. The
// pinning hash is read best-effort from the checkout.
func (r *Resolver) resolveLocal(ctx context.Context, spec model.VersionSpec) (model.ResolvedSource, error) {
	dir := spec.Value
	if dir == "" {
		dir = r.localDir
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return model.ResolvedSource{}, fmt.Errorf("%w: %s", ErrPathNotFound, dir)
	}

	hash := "unknown"
	if out, err := r.run(ctx, "-C", dir, "rev-parse", "HEAD"); err == nil {
		if h := strings.TrimSpace(out); h != "" {
			hash = h
		}
	}
	return model.ResolvedSource{
		Spec:     spec,
		Kind:     model.SourceLocal,
		Location: dir,
		Hash:     hash,
	}, nil
}

// lsRemote returns the hash the remote advertises for ref, or "" when the
// ref does not exist.
func (r *Resolver) lsRemote(ctx context.Context, ref string) (string, error) {
	out, err := r.run(ctx, "ls-remote", r.remote, ref)
	if err != nil {
		return "", err
	}
	hash, _, ok := strings.Cut(strings.TrimSpace(out), "\t")
	if !ok || hash == "" {
		return "", nil
	}
	return hash, nil
}

func (r *Resolver) remoteSource(spec model.VersionSpec, hash string) model.ResolvedSource {
	return model.ResolvedSource{
		Spec:     spec,
		Kind:     model.SourceRemote,
		Location: r.remote,
		Hash:     hash,
	}
}
