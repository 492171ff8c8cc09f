package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rahul/scout/internal/agent"
)

func newTestStore(t *testing.T) *ReportStore {
	t.Helper()
	s, err := NewReportStore(filepath.Join(t.TempDir(), "data", "reports.db"))
	if err != nil {
		t.Fatalf("NewReportStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func report(id, company string, at time.Time) agent.Report {
	return agent.Report{
		ID:      id,
		Company: company,
		Goals:   "growth",
		Plan: agent.Plan{
			Overview:           company + " overview",
			ProductsServices:   "p",
			MarketsCustomers:   "m",
			Opportunities:      "o",
			Risks:              "r",
			RecommendedActions: "a",
		},
		Sources:   []string{"https://" + id + ".example"},
		CreatedAt: at,
	}
}

func TestReportStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.SaveReport(ctx, report("r1", "Acme", at)); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	got, err := s.GetReport(ctx, "r1")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got.Company != "Acme" || got.Plan.Overview != "Acme overview" || got.Plan.RecommendedActions != "a" {
		t.Errorf("unexpected report %+v", got)
	}
	if len(got.Sources) != 1 || got.Sources[0] != "https://r1.example" {
		t.Errorf("unexpected sources %v", got.Sources)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, at)
	}
}

func TestReportStore_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetReport(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReportStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range []string{"Acme", "Globex", "Initech"} {
		if err := s.SaveReport(ctx, report(c, c, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}

	list, err := s.ListReports(ctx, 2)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(list) != 2 || list[0].Company != "Initech" || list[1].Company != "Globex" {
		t.Errorf("unexpected order %+v", list)
	}
}
