package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pwdrift/pwdrift/pkg/policy"
	"github.com/pwdrift/pwdrift/pkg/report"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pwdrift.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testReport() *report.Report {
	return report.New("5.1.0.0", "defaults", []report.Result{
		{
			Component: policy.ComponentHost,
			Category:  policy.CategoryLockout,
			Drifts: []policy.Drift{
				{Field: "maxFailures", Current: 10, Expected: 5, Match: false},
				{Field: "unlockIntervalSec", Current: 900, Expected: 900, Match: true},
			},
		},
		{
			Component: policy.ComponentManager,
			Category:  policy.CategoryExpiration,
			Error:     "connection refused",
		},
	})
}

func TestSaveAndGetReport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rep := testReport()
	if err := store.SaveReport(ctx, rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := store.GetReport(ctx, rep.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.ID != rep.ID || got.Version != rep.Version {
		t.Errorf("identity fields did not round-trip: %+v", got)
	}
	if got.Summary != rep.Summary {
		t.Errorf("summary = %+v, want %+v", got.Summary, rep.Summary)
	}
	if len(got.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(got.Results))
	}
}

func TestGetReportNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetReport(context.Background(), "no-such-id"); err == nil {
		t.Error("missing report should fail")
	}
}

func TestListReportsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testReport()
	first.GeneratedAt = time.Now().Add(-time.Hour)
	second := testReport()

	if err := store.SaveReport(ctx, first); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := store.SaveReport(ctx, second); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	records, err := store.ListReports(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != second.ID {
		t.Errorf("newest report should come first, got %s", records[0].ID)
	}
	if records[0].Compliant {
		t.Error("report with drift should not be compliant")
	}
	if records[0].MismatchedFields != 1 || records[0].FailedChecks != 1 {
		t.Errorf("unexpected summary row: %+v", records[0])
	}
}

func TestListFindings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rep := testReport()
	if err := store.SaveReport(ctx, rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	findings, err := store.ListFindings(ctx, rep.ID)
	if err != nil {
		t.Fatalf("ListFindings: %v", err)
	}
	// Only the mismatched field lands in findings.
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	f := findings[0]
	if f.Component != "host" || f.Field != "maxFailures" || f.Current != "10" || f.Expected != "5" {
		t.Errorf("unexpected finding: %+v", f)
	}
}

func TestDeleteReportCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rep := testReport()
	if err := store.SaveReport(ctx, rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := store.DeleteReport(ctx, rep.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if err := store.DeleteReport(ctx, rep.ID); err == nil {
		t.Error("deleting twice should fail")
	}

	findings, err := store.ListFindings(ctx, rep.ID)
	if err != nil {
		t.Fatalf("ListFindings: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings should cascade on delete, got %d", len(findings))
	}
}

func TestPruneBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := testReport()
	old.GeneratedAt = time.Now().Add(-48 * time.Hour)
	recent := testReport()

	if err := store.SaveReport(ctx, old); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := store.SaveReport(ctx, recent); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	pruned, err := store.PruneBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	records, err := store.ListReports(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(records) != 1 || records[0].ID != recent.ID {
		t.Errorf("only the recent report should remain: %+v", records)
	}
}
