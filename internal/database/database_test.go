package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/circleous/repo-maker/internal/database"
)

func open(t *testing.T) database.Service {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open database %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize database %v", err)
	}
	// twice is fine
	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize database again %v", err)
	}

	return db
}

func TestRecordAndListRuns(t *testing.T) {
	db := open(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, outcome := range []string{"missing_config", "created", "failed"} {
		err := db.RecordRun(ctx, database.Run{
			DeliveryID:   "delivery",
			Organization: "acme",
			SourceRepo:   "template",
			IssueNumber:  3,
			TargetRepo:   "widgets",
			URL:          "https://github.com/acme/widgets",
			Author:       "octocat",
			Outcome:      outcome,
			FailedTeams:  i,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to record run %v", err)
		}
	}

	runs, err := db.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Outcome != "failed" || runs[1].Outcome != "created" {
		t.Errorf("runs not ordered newest first: %+v", runs)
	}
	if runs[0].FailedTeams != 2 || runs[0].Organization != "acme" || runs[0].IssueNumber != 3 ||
		runs[0].URL != "https://github.com/acme/widgets" {
		t.Errorf("unexpected run %+v", runs[0])
	}
	if !runs[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("created_at = %s", runs[0].CreatedAt)
	}
}

func TestListRunsEmpty(t *testing.T) {
	runs, err := open(t).ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %+v", runs)
	}
}
