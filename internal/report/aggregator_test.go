package report_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
	"github.com/Nullvora/mabor-bench/internal/report"
)

func unit(bench string) model.RunUnit {
	return model.RunUnit{
		BenchID:   bench,
		BackendID: "wgpu",
		Dtype:     model.DtypeF32,
		Version: model.ResolvedSource{
			Spec: model.ParseVersionSpec("0.18.0"),
			Kind: model.SourceRemote,
			Hash: "02d37011ab4dc773286e5983c09cde61f95ba4b5",
		},
	}
}

func TestSummarize(t *testing.T) {
	samples := []time.Duration{
		10 * time.Second,
		20 * time.Second,
		30 * time.Second,
		40 * time.Second,
		50 * time.Second,
	}
	stats := report.Summarize(samples)
	if stats == nil {
		t.Fatal("Summarize returned nil")
	}
	if stats.Mean != 30*time.Second {
		t.Errorf("mean = %v, want 30s", stats.Mean)
	}
	if stats.Median != 30*time.Second {
		t.Errorf("median = %v, want 30s", stats.Median)
	}
	if stats.Min != 10*time.Second || stats.Max != 50*time.Second {
		t.Errorf("min/max = %v/%v, want 10s/50s", stats.Min, stats.Max)
	}
	// Unbiased sample std dev of {10..50}s is sqrt(1000/4) ≈ 15.811s.
	if stats.StdDev == nil {
		t.Fatal("std dev should be defined for 5 samples")
	}
	got := stats.StdDev.Seconds()
	if got < 15.8 || got > 15.9 {
		t.Errorf("std dev = %vs, want ≈15.811s", got)
	}
}

func TestSummarizeMedianEvenCount(t *testing.T) {
	samples := []time.Duration{
		18 * time.Second,
		20 * time.Second,
		30 * time.Second,
		40 * time.Second,
	}
	stats := report.Summarize(samples)
	if stats.Median != 30*time.Second {
		t.Errorf("median = %v, want upper median 30s", stats.Median)
	}
}

func TestSummarizeFewSamples(t *testing.T) {
	if report.Summarize(nil) != nil {
		t.Error("Summarize(nil) should be nil")
	}

	stats := report.Summarize([]time.Duration{7 * time.Millisecond})
	if stats == nil {
		t.Fatal("single sample should still summarize")
	}
	if stats.StdDev != nil {
		t.Error("std dev must be undefined (nil) for a single sample, not zero")
	}
	if stats.Mean != 7*time.Millisecond || stats.Min != 7*time.Millisecond || stats.Max != 7*time.Millisecond {
		t.Errorf("degenerate stats = %+v", stats)
	}
}

func TestAggregatorFinalize(t *testing.T) {
	agg := report.NewAggregator()
	if err := agg.Add(model.Measurement{
		Unit:    unit("unary"),
		Status:  model.StatusSuccess,
		Samples: []time.Duration{time.Millisecond, 2 * time.Millisecond},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := agg.Add(model.Failed(unit("matmul"), "build: mismatched types")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	env := model.EnvironmentInfo{OS: "linux", Timestamp: time.Now().UTC()}
	r := agg.Finalize(env)

	if r.ID == "" {
		t.Error("report id should be set")
	}
	if len(r.Measurements) != 2 {
		t.Fatalf("measurements = %d, want 2", len(r.Measurements))
	}
	if r.Measurements[0].Stats == nil {
		t.Error("successful measurement should carry stats")
	}
	if r.Measurements[1].Stats != nil {
		t.Error("failed measurement should not carry stats")
	}
	if counts := r.CountByStatus(); counts[model.StatusSuccess] != 1 || counts[model.StatusFailed] != 1 {
		t.Errorf("CountByStatus = %v", counts)
	}

	if err := agg.Add(model.Skipped(unit("binary"), "late")); err != report.ErrFinalized {
		t.Errorf("Add after Finalize = %v, want ErrFinalized", err)
	}
}

// Statistics must survive serialization: a report marshaled for upload and
// unmarshaled again re-summarizes to identical mean/min/max per unit.
func TestReportRoundTripLossless(t *testing.T) {
	agg := report.NewAggregator()
	samples := []time.Duration{8858583, 8719822, 8705335, 8835636, 8592507}
	if err := agg.Add(model.Measurement{Unit: unit("unary"), Status: model.StatusSuccess, Samples: samples}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r := agg.Finalize(model.EnvironmentInfo{OS: "linux"})

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back model.Report
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := r.Measurements[0].Stats
	got := report.Summarize(back.Measurements[0].Samples)
	if got.Mean != want.Mean || got.Min != want.Min || got.Max != want.Max {
		t.Errorf("round-tripped stats differ: got %+v, want %+v", got, want)
	}
}

func TestFlatten(t *testing.T) {
	agg := report.NewAggregator()
	if err := agg.Add(model.Measurement{
		Unit:    unit("unary"),
		Status:  model.StatusSuccess,
		Samples: []time.Duration{8 * time.Millisecond, 9 * time.Millisecond},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r := agg.Finalize(model.EnvironmentInfo{OS: "linux"})

	backends := map[string]model.Backend{"wgpu": {ID: "wgpu", Device: "gpu"}}
	records := report.Flatten(r, backends)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Name != "unary" || rec.Backend != "wgpu" || rec.Device != "gpu" {
		t.Errorf("record identity = %s/%s/%s", rec.Name, rec.Backend, rec.Device)
	}
	if rec.MaborVersion != "0.18.0" {
		t.Errorf("maborVersion = %q", rec.MaborVersion)
	}
	if rec.Mean != 8500 {
		t.Errorf("mean = %dµs, want 8500", rec.Mean)
	}
	if rec.NumSamples != 2 || len(rec.RawDurations) != 2 {
		t.Errorf("samples = %d/%d, want 2/2", rec.NumSamples, len(rec.RawDurations))
	}
	if rec.StdDev == nil {
		t.Error("stdDev should be set for 2 samples")
	}
}
