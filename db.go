package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ReportRun is one recorded generation of a weekly document.
type ReportRun struct {
	ID          int64
	WeekIndex   int
	PeriodStart time.Time
	PeriodEnd   time.Time
	Repos       int
	Commits     int
	PRs         int
	Issues      int
	Releases    int
	GeneratedAt time.Time
}

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		week_index   INTEGER NOT NULL,
		period_start DATETIME NOT NULL,
		period_end   DATETIME NOT NULL,
		repos        INTEGER NOT NULL DEFAULT 0,
		commits      INTEGER NOT NULL DEFAULT 0,
		prs          INTEGER NOT NULL DEFAULT 0,
		issues       INTEGER NOT NULL DEFAULT 0,
		releases     INTEGER NOT NULL DEFAULT 0,
		generated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_report_runs_week ON report_runs(week_index);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

func RecordRun(db *sql.DB, run ReportRun) error {
	_, err := db.Exec(
		`INSERT INTO report_runs (week_index, period_start, period_end, repos, commits, prs, issues, releases)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.WeekIndex, run.PeriodStart, run.PeriodEnd, run.Repos,
		run.Commits, run.PRs, run.Issues, run.Releases,
	)
	return err
}

func ListRuns(db *sql.DB, limit int) ([]ReportRun, error) {
	rows, err := db.Query(
		`SELECT id, week_index, period_start, period_end, repos, commits, prs, issues, releases, generated_at
		 FROM report_runs ORDER BY generated_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		var run ReportRun
		if err := rows.Scan(&run.ID, &run.WeekIndex, &run.PeriodStart, &run.PeriodEnd,
			&run.Repos, &run.Commits, &run.PRs, &run.Issues, &run.Releases, &run.GeneratedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
