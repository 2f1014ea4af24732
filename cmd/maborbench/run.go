package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/Nullvora/mabor-bench/internal/buildcache"
	"github.com/Nullvora/mabor-bench/internal/config"
	"github.com/Nullvora/mabor-bench/internal/engine"
	"github.com/Nullvora/mabor-bench/internal/model"
	"github.com/Nullvora/mabor-bench/internal/share"
	"github.com/Nullvora/mabor-bench/internal/store"
	"github.com/Nullvora/mabor-bench/internal/sysinfo"
	"github.com/Nullvora/mabor-bench/internal/trigger"
	"github.com/Nullvora/mabor-bench/internal/version"
	"github.com/Nullvora/mabor-bench/internal/workload"
)

func runCommand() cli.Command {
	return cli.Command{
		Name:  "run",
		Usage: "execute a benchmark matrix and store the report locally",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "benches",
				Usage: "comma-separated bench names (default: all)",
			},
			cli.StringFlag{
				Name:  "backends",
				Usage: "comma-separated backend ids (default: all)",
			},
			cli.StringFlag{
				Name:  "versions",
				Usage: "comma-separated version specs: semver, branch, commit hash or 'local'",
				Value: "main",
			},
			cli.StringFlag{
				Name:  "dtypes",
				Usage: "comma-separated data types",
				Value: model.DtypeF32,
			},
			cli.IntFlag{
				Name:  "repetitions",
				Usage: "recorded samples per case (0 uses the configured default)",
			},
			cli.IntFlag{
				Name:  "warmup",
				Usage: "leading samples discarded per case (-1 uses the configured default)",
				Value: -1,
			},
			cli.DurationFlag{
				Name:  "timeout",
				Usage: "abort the whole run after this long (0 uses the configured default)",
			},
			cli.IntFlag{
				Name:  "parallelism",
				Usage: "concurrent (version, backend) groups (0 uses the configured default)",
			},
			cli.BoolFlag{
				Name:  "share",
				Usage: "upload the report after the run",
			},
			cli.StringFlag{
				Name:  "local-dir",
				Usage: "source checkout used by the 'local' version spec",
			},
			cli.StringFlag{
				Name:  "trigger",
				Usage: "read the selection from a trigger file instead of flags",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	opts := engine.Options{
		Repetitions:   cfg.Repetitions,
		WarmUp:        cfg.WarmUp,
		Parallelism:   cfg.Parallelism,
		GlobalTimeout: cfg.Timeout,
	}

	registry := workload.DefaultRegistry()
	backends := workload.DefaultBackends()

	var sel engine.Selection
	if path := c.String("trigger"); path != "" {
		tf, err := trigger.Load(path)
		if err != nil {
			return err
		}
		sel = tf.Selection()
		opts = tf.Apply(opts)
	} else {
		sel = engine.Selection{
			Benches:  splitList(c.String("benches")),
			Backends: splitList(c.String("backends")),
			Dtypes:   splitList(c.String("dtypes")),
		}
		for _, v := range splitList(c.String("versions")) {
			sel.Versions = append(sel.Versions, model.ParseVersionSpec(v))
		}
	}
	if len(sel.Benches) == 0 {
		sel.Benches = registry.List()
	}
	if len(sel.Backends) == 0 {
		for _, b := range backends.List() {
			sel.Backends = append(sel.Backends, b.ID)
		}
	}

	if n := c.Int("repetitions"); n > 0 {
		opts.Repetitions = n
	}
	if n := c.Int("warmup"); n >= 0 {
		opts.WarmUp = n
	}
	if n := c.Int("parallelism"); n > 0 {
		opts.Parallelism = n
	}
	if d := c.Duration("timeout"); d > 0 {
		opts.GlobalTimeout = d
	}

	localDir := cfg.LocalDir
	if v := c.String("local-dir"); v != "" {
		localDir = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := sysinfo.Capture(ctx)

	resolver := version.NewResolver(cfg.RemoteURL, localDir)
	builder := buildcache.NewExecBuilder(cfg.CacheDir, logger)
	cache := buildcache.New(builder, logger)
	eng := engine.New(resolver, cache, registry, backends, logger, opts)

	events, unsubscribe := eng.Broker().Subscribe()
	defer unsubscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Phase != engine.PhaseFinished {
				continue
			}
			line := fmt.Sprintf("[%d/%d] %s: %s", ev.Index+1, ev.Total, ev.Unit, ev.Status)
			if ev.Reason != "" {
				line += " (" + ev.Reason + ")"
			}
			fmt.Println(line)
		}
	}()

	rep := eng.Run(ctx, sel, env)
	<-done

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.SaveReport(context.Background(), rep); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	printSummary(rep)

	if c.Bool("share") {
		// Upload outside the run context so an interrupted run can still
		// share what completed.
		if err := uploadReport(context.Background(), cfg, db, rep, logger); err != nil {
			return err
		}
		fmt.Println("report shared")
	}
	return nil
}

// uploadReport sends a stored report to the results service and marks it
// shared on success.
func uploadReport(ctx context.Context, cfg config.Config, db store.Store, rep *model.Report, logger *slog.Logger) error {
	tokens := share.NewTokenStore(cfg.TokenPath())
	tok, err := tokens.Load()
	if err != nil {
		return fmt.Errorf("not logged in, run 'maborbench auth login' first: %w", err)
	}

	byID := make(map[string]model.Backend)
	for _, b := range workload.DefaultBackends().List() {
		byID[b.ID] = b
	}

	client := share.NewClient(cfg.ServerURL, byID, logger)
	res, err := client.Upload(ctx, rep, tok)
	if err != nil {
		return err
	}
	return db.MarkShared(ctx, res.ReportID, time.Now().UTC())
}

func printSummary(rep *model.Report) {
	counts := rep.CountByStatus()
	fmt.Printf("report %s: %d units (%d success, %d failed, %d skipped)\n",
		rep.ID, len(rep.Measurements),
		counts[model.StatusSuccess], counts[model.StatusFailed], counts[model.StatusSkipped])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
