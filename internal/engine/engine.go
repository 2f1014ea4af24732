package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nullvora/mabor-bench/internal/buildcache"
	"github.com/Nullvora/mabor-bench/internal/model"
	"github.com/Nullvora/mabor-bench/internal/report"
	"github.com/Nullvora/mabor-bench/internal/workload"
)

// Defaults applied when an option is zero.
const (
	DefaultRepetitions = 10
	DefaultWarmUp      = 3
)

// errRunAborted signals that the run context ended at a safe boundary;
// the unit is recorded as skipped, not failed.
var errRunAborted = errors.New("run aborted")

// Resolver maps version specifiers to concrete sources.
type Resolver interface {
	Resolve(ctx context.Context, spec model.VersionSpec) (model.ResolvedSource, error)
}

// Selection names the dimensions of one run matrix.
type Selection struct {
	Benches  []string
	Backends []string
	Versions []model.VersionSpec
	Dtypes   []string
}

// Options tune matrix execution.
type Options struct {
	// Repetitions is the number of recorded samples per case.
	Repetitions int
	// WarmUp is the number of leading samples per case discarded from
	// statistics.
	WarmUp int
	// Parallelism bounds the worker pool; <=1 means serial execution.
	// Hardware-exclusive backends serialize regardless.
	Parallelism int
	// GlobalTimeout aborts the whole run when exceeded; unexecuted units
	// are marked skipped. Zero disables it.
	GlobalTimeout time.Duration
	// UnitTimeout bounds a single unit's measurement; exceeding it fails
	// that unit only. Zero disables it.
	UnitTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Repetitions <= 0 {
		o.Repetitions = DefaultRepetitions
	}
	if o.WarmUp < 0 {
		o.WarmUp = DefaultWarmUp
	}
	if o.Parallelism < 1 {
		o.Parallelism = 1
	}
	return o
}

// Engine executes run matrices. The build cache it holds is bound to one
// orchestration run; create a fresh engine per run.
type Engine struct {
	resolver Resolver
	cache    *buildcache.Cache
	registry *workload.Registry
	backends *workload.BackendSet
	logger   *slog.Logger
	broker   *Broker
	opts     Options

	// hwMu serializes measurements on hardware-exclusive backends so
	// concurrent units never contend for the accelerator.
	hwMu sync.Mutex
}

// New creates an execution engine.
func New(resolver Resolver, cache *buildcache.Cache, registry *workload.Registry, backends *workload.BackendSet, logger *slog.Logger, opts Options) *Engine {
	return &Engine{
		resolver: resolver,
		cache:    cache,
		registry: registry,
		backends: backends,
		logger:   logger,
		broker:   NewBroker(),
		opts:     opts.withDefaults(),
	}
}

// Broker returns the engine's progress broker for subscription.
func (e *Engine) Broker() *Broker {
	return e.broker
}

// planUnit is one expanded matrix cell before resolution.
type planUnit struct {
	index      int
	spec       model.VersionSpec
	backend    model.Backend
	backendErr string
	bench      string
	dtype      string
}

func (u planUnit) unit() model.RunUnit {
	return model.RunUnit{BenchID: u.bench, BackendID: u.backend.ID, Dtype: u.dtype}
}

// expand computes the Cartesian product in the order versions → backends →
// benches → dtypes (outer to inner) and groups units sharing a (version,
// backend) pair, so build-cache reuse within a group is maximal and groups
// share no cache keys with each other.
func (e *Engine) expand(sel Selection) ([][]planUnit, int) {
	var groups [][]planUnit
	index := 0
	for _, spec := range sel.Versions {
		for _, backendID := range sel.Backends {
			var grp []planUnit
			b, err := e.backends.Resolve(backendID)
			for _, bench := range sel.Benches {
				for _, dtype := range sel.Dtypes {
					u := planUnit{
						index:   index,
						spec:    spec,
						backend: b,
						bench:   bench,
						dtype:   dtype,
					}
					if err != nil {
						u.backend = model.Backend{ID: backendID}
						u.backendErr = err.Error()
					}
					grp = append(grp, u)
					index++
				}
			}
			groups = append(groups, grp)
		}
	}
	return groups, index
}

// Run executes the matrix and always returns a report, even if every unit
// failed; failure is data, not a crash.
func (e *Engine) Run(ctx context.Context, sel Selection, env model.EnvironmentInfo) *model.Report {
	runCtx := ctx
	if e.opts.GlobalTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.GlobalTimeout)
		defer cancel()
	}

	groups, total := e.expand(sel)
	e.logger.Info("matrix expanded",
		"units", total,
		"groups", len(groups),
		"repetitions", e.opts.Repetitions,
		"warmup", e.opts.WarmUp,
		"parallelism", e.opts.Parallelism,
	)

	results := make([]model.Measurement, total)

	// Groups share no cache keys, so they may run concurrently; units
	// within a group stay in matrix order on one worker.
	var g errgroup.Group
	g.SetLimit(e.opts.Parallelism)
	for _, grp := range groups {
		g.Go(func() error {
			for _, u := range grp {
				start := time.Now()
				m := e.runUnit(runCtx, u)
				results[u.index] = m

				unitsTotal.WithLabelValues(m.Status).Inc()
				unitDuration.WithLabelValues(u.bench, u.backend.ID).Observe(time.Since(start).Seconds())
				e.broker.Publish(Event{
					Unit:   m.Unit,
					Phase:  PhaseFinished,
					Status: m.Status,
					Reason: m.Reason,
					Index:  u.index,
					Total:  total,
				})
			}
			return nil
		})
	}
	g.Wait()
	e.broker.Close()

	agg := report.NewAggregator()
	for _, m := range results {
		if err := agg.Add(m); err != nil {
			e.logger.Error("aggregate measurement", "unit", m.Unit.String(), "error", err)
		}
	}
	r := agg.Finalize(env)
	e.logger.Info("run finished", "report_id", r.ID, "by_status", r.CountByStatus())
	return r
}

// runUnit executes one matrix cell: resolve, build, measure. Every failure
// mode is contained to the unit's measurement.
func (e *Engine) runUnit(ctx context.Context, u planUnit) model.Measurement {
	unit := u.unit()

	if ctx.Err() != nil {
		return model.Skipped(unit, skipReason(ctx))
	}
	if u.backendErr != "" {
		return model.Failed(unit, u.backendErr)
	}
	if !u.backend.Supports(u.dtype) {
		return model.Skipped(unit, model.SkipUnsupported)
	}

	src, err := e.resolver.Resolve(ctx, u.spec)
	if err != nil {
		if ctx.Err() != nil {
			return model.Skipped(unit, skipReason(ctx))
		}
		return model.Failed(unit, err.Error())
	}
	unit.Version = src

	e.broker.Publish(Event{Unit: unit, Phase: PhaseStarted})

	art, err := e.cache.GetOrBuild(ctx, src, u.backend.ID, u.dtype)
	if err != nil {
		if ctx.Err() != nil {
			return model.Skipped(unit, skipReason(ctx))
		}
		return model.Failed(unit, err.Error())
	}

	suite, err := e.registry.Resolve(u.bench)
	if err != nil {
		return model.Failed(unit, err.Error())
	}

	if u.backend.Exclusive {
		e.hwMu.Lock()
		defer e.hwMu.Unlock()
	}

	samples, err := e.measure(ctx, suite, art, u)
	if err != nil {
		if errors.Is(err, errRunAborted) {
			return model.Skipped(unit, skipReason(ctx))
		}
		return model.Failed(unit, err.Error())
	}

	return model.Measurement{Unit: unit, Status: model.StatusSuccess, Samples: samples}
}

// measure collects warm-up plus recorded samples for every case of the
// suite. Cancellation is honored between repetitions, never mid-sample.
func (e *Engine) measure(ctx context.Context, suite workload.Workload, art buildcache.Artifact, u planUnit) ([]time.Duration, error) {
	unitCtx := ctx
	if e.opts.UnitTimeout > 0 {
		var cancel context.CancelFunc
		unitCtx, cancel = context.WithTimeout(ctx, e.opts.UnitTimeout)
		defer cancel()
	}

	var samples []time.Duration
	for _, caseID := range suite.Enumerate() {
		for rep := range e.opts.WarmUp + e.opts.Repetitions {
			if ctx.Err() != nil {
				return nil, errRunAborted
			}

			d, err := suite.Run(unitCtx, caseID, art, u.backend.ID, u.dtype)
			if err != nil {
				if ctx.Err() != nil {
					return nil, errRunAborted
				}
				if errors.Is(unitCtx.Err(), context.DeadlineExceeded) {
					return nil, fmt.Errorf("unit timed out after %s", e.opts.UnitTimeout)
				}
				return nil, err
			}
			if rep >= e.opts.WarmUp {
				samples = append(samples, d)
			}
		}
	}
	return samples, nil
}

func skipReason(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.SkipTimeout
	}
	return model.SkipInterrupted
}
