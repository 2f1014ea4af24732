package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
	"github.com/Nullvora/mabor-bench/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() *model.Report {
	unit := model.RunUnit{
		BenchID:   "unary",
		BackendID: "wgpu",
		Dtype:     model.DtypeF32,
		Version:   model.ResolvedSource{Spec: model.ParseVersionSpec("main"), Hash: "abc1234"},
	}
	return &model.Report{
		ID:          model.NewID(),
		Environment: model.EnvironmentInfo{OS: "linux", Timestamp: time.Now().UTC()},
		Measurements: []model.Measurement{
			{Unit: unit, Status: model.StatusSuccess, Samples: []time.Duration{time.Millisecond, 2 * time.Millisecond}},
			model.Failed(unit, "build failed"),
			model.Skipped(unit, model.SkipUnsupported),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestSaveAndGetReport(t *testing.T) {
	s := newTestStore(t)
	r := sampleReport()

	if err := s.SaveReport(context.Background(), r); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := s.GetReport(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("id = %q, want %q", got.ID, r.ID)
	}
	if len(got.Measurements) != 3 {
		t.Errorf("measurements = %d, want 3", len(got.Measurements))
	}
	if got.Measurements[0].Samples[1] != 2*time.Millisecond {
		t.Errorf("samples did not round trip: %v", got.Measurements[0].Samples)
	}
}

func TestGetReportNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetReport(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListReports(t *testing.T) {
	s := newTestStore(t)
	first := sampleReport()
	second := sampleReport()
	second.CreatedAt = first.CreatedAt.Add(time.Minute)

	for _, r := range []*model.Report{first, second} {
		if err := s.SaveReport(context.Background(), r); err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}

	metas, total, err := s.ListReports(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(metas) != 1 {
		t.Fatalf("metas = %d, want 1 (limit)", len(metas))
	}
	if metas[0].ID != second.ID {
		t.Errorf("newest first: got %q, want %q", metas[0].ID, second.ID)
	}
	if metas[0].Units != 3 || metas[0].Success != 1 || metas[0].Failed != 1 || metas[0].Skipped != 1 {
		t.Errorf("meta counts = %+v", metas[0])
	}
}

func TestMarkShared(t *testing.T) {
	s := newTestStore(t)
	r := sampleReport()
	if err := s.SaveReport(context.Background(), r); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	when := time.Now().UTC()
	if err := s.MarkShared(context.Background(), r.ID, when); err != nil {
		t.Fatalf("MarkShared: %v", err)
	}

	metas, _, err := s.ListReports(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if !metas[0].Shared || metas[0].UploadedAt == nil {
		t.Errorf("meta = %+v, want shared with uploaded_at", metas[0])
	}

	if err := s.MarkShared(context.Background(), "missing", when); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("MarkShared(missing) = %v, want ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)

	empty, err := s.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if empty.Total != 0 {
		t.Errorf("empty total = %d", empty.Total)
	}

	r := sampleReport()
	if err := s.SaveReport(context.Background(), r); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := s.MarkShared(context.Background(), r.ID, time.Now()); err != nil {
		t.Fatalf("MarkShared: %v", err)
	}

	stats, err := s.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 1 || stats.Shared != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.UnitsByStatus[model.StatusSuccess] != 1 || stats.UnitsByStatus[model.StatusSkipped] != 1 {
		t.Errorf("units by status = %v", stats.UnitsByStatus)
	}
}
