package database

import (
	"context"
	"time"
)

func (db *databaseConnection) RecordRun(ctx context.Context, run Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO runs (
			delivery_id, organization, source_repo, issue_number,
			target_repo, url, author, outcome, error, failed_teams, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.DeliveryID, run.Organization, run.SourceRepo, run.IssueNumber,
		run.TargetRepo, run.URL, run.Author, run.Outcome, run.Error, run.FailedTeams,
		run.CreatedAt.UTC(),
	)
	return err
}

// ListRuns returns the latest runs, newest first
func (db *databaseConnection) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, delivery_id, organization, source_repo, issue_number,
			target_repo, url, author, outcome, error, failed_teams, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		err = rows.Scan(&run.ID, &run.DeliveryID, &run.Organization, &run.SourceRepo,
			&run.IssueNumber, &run.TargetRepo, &run.URL, &run.Author, &run.Outcome, &run.Error,
			&run.FailedTeams, &run.CreatedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
