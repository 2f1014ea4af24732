// Package buildcache guarantees each resolved source is built at most once
// per orchestration run for every (source, backend, dtype) key. The cache's
// lifecycle is bound to one run: it is created at run start and discarded at
// run end, never shared across runs.
package buildcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Nullvora/mabor-bench/internal/model"
)

var buildsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "maborbench_builds_total",
		Help: "Total artifact builds performed, by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(buildsTotal)
}

// Key identifies one buildable artifact.
type Key struct {
	Hash    string
	Backend string
	Dtype   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s-%s-%s", shortHash(k.Hash), k.Backend, k.Dtype)
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// Artifact is a handle to a built set of benchmark binaries.
type Artifact struct {
	Key     Key
	Dir     string
	BuiltAt time.Time
}

// BuildError reports a failed build along with a captured diagnostic
// excerpt. Builds are not retried within a run; every waiter on the same
// key receives the same error.
type BuildError struct {
	Key           Key
	StderrExcerpt string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %s", e.Key, e.StderrExcerpt)
}

// Builder produces an artifact from a resolved source. Implementations are
// expected to be safe for concurrent calls with distinct keys.
type Builder interface {
	Build(ctx context.Context, src model.ResolvedSource, backend, dtype string) (Artifact, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, src model.ResolvedSource, backend, dtype string) (Artifact, error)

func (f BuilderFunc) Build(ctx context.Context, src model.ResolvedSource, backend, dtype string) (Artifact, error) {
	return f(ctx, src, backend, dtype)
}

type entry struct {
	ready chan struct{}
	art   Artifact
	err   error
}

// Cache is the per-run keyed build store. Concurrent requests for the same
// key block until the first build completes, then share its outcome; build
// failures stay cached for the remainder of the run.
type Cache struct {
	builder Builder
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[Key]*entry
}

// New creates an empty cache delegating builds to the given builder.
func New(builder Builder, logger *slog.Logger) *Cache {
	return &Cache{
		builder: builder,
		logger:  logger,
		entries: make(map[Key]*entry),
	}
}

// GetOrBuild returns the artifact for (src, backend, dtype), building it if
// this is the first request for the key. The caller's context only bounds
// its own wait: a build started by another caller keeps running.
func (c *Cache) GetOrBuild(ctx context.Context, src model.ResolvedSource, backend, dtype string) (Artifact, error) {
	key := Key{Hash: src.Hash, Backend: backend, Dtype: dtype}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		c.entries[key] = e
	}
	c.mu.Unlock()

	if ok {
		select {
		case <-e.ready:
			return e.art, e.err
		case <-ctx.Done():
			return Artifact{}, ctx.Err()
		}
	}

	c.logger.Info("building artifact", "key", key.String(), "version", src.Spec.String())
	start := time.Now()
	e.art, e.err = c.builder.Build(ctx, src, backend, dtype)
	close(e.ready)

	if e.err != nil {
		buildsTotal.WithLabelValues("error").Inc()
		c.logger.Error("build failed", "key", key.String(), "error", e.err)
	} else {
		buildsTotal.WithLabelValues("ok").Inc()
		c.logger.Info("build finished", "key", key.String(), "duration_ms", time.Since(start).Milliseconds())
	}
	return e.art, e.err
}

// Len returns the number of distinct keys requested so far.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
