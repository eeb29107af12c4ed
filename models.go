package main

import (
	"fmt"
	"time"
)

// reportEpoch is the Monday that opens week 1. Every period and every month
// bucket derives from this constant; moving it renumbers all prior reports.
var reportEpoch = time.Date(2025, time.November, 24, 0, 0, 0, 0, time.UTC)

const weekLength = 7 * 24 * time.Hour

// Period is the fixed 7-day calendar window a single report covers.
// End is inclusive: Start + 7 days - 1ms.
type Period struct {
	WeekIndex int
	Start     time.Time
	End       time.Time
}

// PeriodFor maps a week index (>= 1) to its calendar interval. Periods for
// consecutive indices are contiguous and non-overlapping.
func PeriodFor(weekIndex int) Period {
	start := reportEpoch.Add(time.Duration(weekIndex-1) * weekLength)
	return Period{
		WeekIndex: weekIndex,
		Start:     start,
		End:       start.Add(weekLength - time.Millisecond),
	}
}

// CurrentWeekIndex returns the week index whose period contains now,
// clamped to 1 for times before the epoch.
func CurrentWeekIndex(now time.Time) int {
	if now.Before(reportEpoch) {
		return 1
	}
	return int(now.Sub(reportEpoch)/weekLength) + 1
}

// MonthBucket is the grouping key for the index artifacts, derived from the
// period's end date so a week straddling two months lands in the later one.
func (p Period) MonthBucket() string {
	return fmt.Sprintf("%d年%d月", p.End.Year(), int(p.End.Month()))
}

func (p Period) Label() string {
	return fmt.Sprintf("%s - %s", p.Start.Format("2006.01.02"), p.End.Format("2006.01.02"))
}

func (p Period) ShortLabel() string {
	return fmt.Sprintf("%s - %s", p.Start.Format("01.02"), p.End.Format("01.02"))
}

type RepoMetadata struct {
	Stars       int
	Forks       int
	OpenIssues  int
	Language    string
	Description string
	LastUpdated time.Time
}

type Release struct {
	Tag         string
	Title       string
	PublishedAt time.Time
	Prerelease  bool
	Draft       bool
	Body        string
	HTMLURL     string
}

type PullRequestSummary struct {
	Number    int
	Title     string
	State     string // "open" or "closed" as returned by the search API
	Author    string
	CreatedAt time.Time
	MergedAt  time.Time // zero when not merged or unknown
	HTMLURL   string
}

type IssueSummary struct {
	Number    int
	Title     string
	State     string
	Author    string
	Reactions int
	CreatedAt time.Time
	ClosedAt  time.Time // zero while open
	HTMLURL   string
}

type PullRequestActivity struct {
	Total  int
	Merged int
	Open   int
	Items  []PullRequestSummary // API order, at most one page
}

type IssueActivity struct {
	Total int
	Top   []IssueSummary // reaction-ranked, length <= configured limit
}

// RepoSnapshot is the fetched activity of one repository over one period.
// Built fresh per run, never mutated afterwards.
type RepoSnapshot struct {
	Owner        string
	Name         string
	Metadata     RepoMetadata
	CommitCount  int
	Releases     []Release
	PullRequests PullRequestActivity
	Issues       IssueActivity
	Period       Period
}

func (s RepoSnapshot) FullName() string { return s.Owner + "/" + s.Name }

// HasActivity reports whether the repo earns a breakdown section.
func (s RepoSnapshot) HasActivity() bool {
	return s.PullRequests.Total > 0 || s.Issues.Total > 0
}

// IndexEntry is one report's line in the derived index artifacts. Entries
// are recomputed from the on-disk documents on every run, never persisted.
type IndexEntry struct {
	WeekIndex int
	Title     string
	Link      string
	Month     string
	EndDate   time.Time
}
