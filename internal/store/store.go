// Package store persists finished reports locally so a failed upload can
// be retried without rerunning the matrix.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// ErrNotFound is returned when a report is not found.
var ErrNotFound = errors.New("report not found")

// ReportMeta is the listing row for a stored report.
type ReportMeta struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Units      int        `json:"units"`
	Success    int        `json:"success"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	Shared     bool       `json:"shared"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// ReportStats holds aggregate statistics over all stored reports.
type ReportStats struct {
	Total         int            `json:"total"`
	Shared        int            `json:"shared"`
	UnitsByStatus map[string]int `json:"units_by_status"`
}

// Store defines the persistence operations for finished reports.
type Store interface {
	SaveReport(ctx context.Context, r *model.Report) error
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReports(ctx context.Context, limit, offset int) ([]ReportMeta, int, error)
	MarkShared(ctx context.Context, id string, at time.Time) error
	GetStats(ctx context.Context) (*ReportStats, error)
	Close() error
}
