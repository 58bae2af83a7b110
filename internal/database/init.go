package database

import (
	"context"
	"database/sql"
	"time"

	// for database/sql
	_ "github.com/mattn/go-sqlite3"
)

type databaseConnection struct {
	conn *sql.DB
}

// Run is one handled create-repo command
type Run struct {
	ID           int64     `json:"id"`
	DeliveryID   string    `json:"delivery_id"`
	Organization string    `json:"organization"`
	SourceRepo   string    `json:"source_repo"`
	IssueNumber  int       `json:"issue_number"`
	TargetRepo   string    `json:"target_repo"`
	URL          string    `json:"url,omitempty"`
	Author       string    `json:"author"`
	Outcome      string    `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	FailedTeams  int       `json:"failed_teams"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service is the main interface for database package
type Service interface {
	Initialize() error
	Close()

	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// NewDatabase create a new connection to database
func NewDatabase(dbURI string) (Service, error) {
	conn, err := sql.Open("sqlite3", dbURI)
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers anyway, one connection avoids "database is locked"
	conn.SetMaxOpenConns(1)

	return &databaseConnection{
		conn: conn,
	}, nil
}

func (dbc *databaseConnection) Initialize() error {
	_, err := dbc.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs(
			id INTEGER PRIMARY KEY,
			delivery_id VARCHAR(64),
			organization VARCHAR(255),
			source_repo VARCHAR(255),
			issue_number INTEGER,
			target_repo VARCHAR(255),
			url VARCHAR(255) NOT NULL DEFAULT '',
			author VARCHAR(255),
			outcome VARCHAR(32) NOT NULL,
			error TEXT,
			failed_teams INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = dbc.conn.Exec(`
		CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
	`)
	return err
}

func (dbc *databaseConnection) Close() {
	dbc.conn.Close()
}
