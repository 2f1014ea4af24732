package buildcache_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nullvora/mabor-bench/internal/buildcache"
	"github.com/Nullvora/mabor-bench/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func source(hash string) model.ResolvedSource {
	return model.ResolvedSource{
		Spec: model.ParseVersionSpec("main"),
		Kind: model.SourceRemote,
		Hash: hash,
	}
}

func TestGetOrBuildBuildsOncePerKey(t *testing.T) {
	var builds atomic.Int32
	cache := buildcache.New(buildcache.BuilderFunc(
		func(_ context.Context, src model.ResolvedSource, backend, dtype string) (buildcache.Artifact, error) {
			builds.Add(1)
			time.Sleep(10 * time.Millisecond)
			return buildcache.Artifact{Dir: "/tmp/" + src.Hash}, nil
		}), discardLogger())

	src := source("aaaa1111")
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			art, err := cache.GetOrBuild(context.Background(), src, "wgpu", model.DtypeF32)
			if err != nil {
				t.Errorf("GetOrBuild: %v", err)
				return
			}
			if art.Dir != "/tmp/aaaa1111" {
				t.Errorf("artifact dir = %q", art.Dir)
			}
		}()
	}
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("builds = %d, want 1", got)
	}
	if cache.Len() != 1 {
		t.Errorf("cache keys = %d, want 1", cache.Len())
	}
}

func TestGetOrBuildFailureCachedForRun(t *testing.T) {
	var builds atomic.Int32
	cache := buildcache.New(buildcache.BuilderFunc(
		func(_ context.Context, src model.ResolvedSource, backend, dtype string) (buildcache.Artifact, error) {
			builds.Add(1)
			return buildcache.Artifact{}, &buildcache.BuildError{
				Key:           buildcache.Key{Hash: src.Hash, Backend: backend, Dtype: dtype},
				StderrExcerpt: "error[E0308]: mismatched types",
			}
		}), discardLogger())

	src := source("bbbb2222")
	for range 3 {
		_, err := cache.GetOrBuild(context.Background(), src, "cuda", model.DtypeF16)
		var be *buildcache.BuildError
		if !errors.As(err, &be) {
			t.Fatalf("err = %v, want *BuildError", err)
		}
		if be.StderrExcerpt != "error[E0308]: mismatched types" {
			t.Errorf("stderr excerpt = %q", be.StderrExcerpt)
		}
	}

	// Failures are not retried within a run.
	if got := builds.Load(); got != 1 {
		t.Errorf("builds = %d, want 1", got)
	}
}

func TestGetOrBuildDistinctKeysDoNotBlock(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	cache := buildcache.New(buildcache.BuilderFunc(
		func(_ context.Context, src model.ResolvedSource, backend, dtype string) (buildcache.Artifact, error) {
			started <- src.Hash
			<-release
			return buildcache.Artifact{}, nil
		}), discardLogger())

	var wg sync.WaitGroup
	for _, hash := range []string{"cccc3333", "dddd4444"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetOrBuild(context.Background(), source(hash), "wgpu", model.DtypeF32); err != nil {
				t.Errorf("GetOrBuild(%s): %v", hash, err)
			}
		}()
	}

	// Both builds must be in flight at once; neither waits on the other.
	for range 2 {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("second build did not start while the first was in flight")
		}
	}
	close(release)
	wg.Wait()
}

func TestGetOrBuildWaiterHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	cache := buildcache.New(buildcache.BuilderFunc(
		func(context.Context, model.ResolvedSource, string, string) (buildcache.Artifact, error) {
			<-release
			return buildcache.Artifact{}, nil
		}), discardLogger())

	src := source("eeee5555")
	go cache.GetOrBuild(context.Background(), src, "wgpu", model.DtypeF32)

	// Give the first caller time to claim the key.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := cache.GetOrBuild(ctx, src, "wgpu", model.DtypeF32)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}
