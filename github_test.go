package main

import (
	"testing"
	"time"

	"github.com/google/go-github/v55/github"
)

func TestRankIssuesStableOrder(t *testing.T) {
	issues := []IssueSummary{
		{Number: 1, Reactions: 3},
		{Number: 2, Reactions: 0},
		{Number: 3, Reactions: 7},
		{Number: 4, Reactions: 7},
		{Number: 5, Reactions: 1},
	}

	ranked := rankIssues(issues, 3)
	if len(ranked) != 3 {
		t.Fatalf("ranked length = %d, want 3", len(ranked))
	}
	// Equal reaction counts must keep the search-returned order: #3 before #4.
	wantNumbers := []int{3, 4, 1}
	for i, want := range wantNumbers {
		if ranked[i].Number != want {
			t.Fatalf("ranked[%d].Number = %d, want %d", i, ranked[i].Number, want)
		}
	}
	if ranked[0].Reactions != 7 || ranked[1].Reactions != 7 || ranked[2].Reactions != 3 {
		t.Fatalf("ranked reactions = [%d %d %d], want [7 7 3]", ranked[0].Reactions, ranked[1].Reactions, ranked[2].Reactions)
	}
}

func TestRankIssuesLimitBeyondLength(t *testing.T) {
	issues := []IssueSummary{{Number: 1, Reactions: 2}, {Number: 2, Reactions: 5}}
	ranked := rankIssues(issues, 10)
	if len(ranked) != 2 {
		t.Fatalf("ranked length = %d, want 2", len(ranked))
	}
	if ranked[0].Number != 2 {
		t.Fatalf("ranked[0].Number = %d, want 2", ranked[0].Number)
	}
	// Input must not be reordered in place.
	if issues[0].Number != 1 {
		t.Fatalf("input slice was mutated: issues[0].Number = %d", issues[0].Number)
	}
}

func TestFilterReleasesBoundaries(t *testing.T) {
	period := PeriodFor(1)
	releases := []Release{
		{Tag: "at-start", PublishedAt: period.Start},
		{Tag: "before-start", PublishedAt: period.Start.Add(-time.Millisecond)},
		{Tag: "at-end", PublishedAt: period.End},
		{Tag: "after-end", PublishedAt: period.End.Add(time.Millisecond)},
		{Tag: "draft", PublishedAt: period.Start, Draft: true},
		{Tag: "unpublished"},
	}

	kept := filterReleases(releases, period)
	if len(kept) != 2 {
		t.Fatalf("kept %d releases, want 2", len(kept))
	}
	if kept[0].Tag != "at-start" || kept[1].Tag != "at-end" {
		t.Fatalf("kept tags = [%s %s], want [at-start at-end]", kept[0].Tag, kept[1].Tag)
	}
}

func TestSearchRange(t *testing.T) {
	period := PeriodFor(1)
	if got := searchRange(period); got != "2025-11-24..2025-11-30" {
		t.Fatalf("searchRange = %s, want 2025-11-24..2025-11-30", got)
	}
}

func TestConvertPullRequest(t *testing.T) {
	created := time.Date(2025, 11, 25, 10, 0, 0, 0, time.UTC)
	closed := time.Date(2025, 11, 27, 15, 0, 0, 0, time.UTC)

	item := &github.Issue{
		Number:    github.Int(42),
		Title:     github.String("Fix gateway reconnect"),
		State:     github.String("closed"),
		User:      &github.User{Login: github.String("alice")},
		CreatedAt: &github.Timestamp{Time: created},
		ClosedAt:  &github.Timestamp{Time: closed},
		HTMLURL:   github.String("https://github.com/openclaw/openclaw/pull/42"),
	}

	pr := convertPullRequest(item)
	if pr.Number != 42 || pr.Author != "alice" || pr.State != "closed" {
		t.Fatalf("unexpected conversion: %+v", pr)
	}
	// The search API omits merged_at; closed_at stands in for closed PRs.
	if !pr.MergedAt.Equal(closed) {
		t.Fatalf("MergedAt = %v, want closed time %v", pr.MergedAt, closed)
	}

	item.State = github.String("open")
	item.ClosedAt = nil
	open := convertPullRequest(item)
	if !open.MergedAt.IsZero() {
		t.Fatalf("open PR MergedAt = %v, want zero", open.MergedAt)
	}
}

func TestConvertIssue(t *testing.T) {
	item := &github.Issue{
		Number:    github.Int(7),
		Title:     github.String("Memory leak in session store"),
		State:     github.String("open"),
		User:      &github.User{Login: github.String("bob")},
		Reactions: &github.Reactions{TotalCount: github.Int(12)},
		CreatedAt: &github.Timestamp{Time: time.Date(2025, 11, 26, 0, 0, 0, 0, time.UTC)},
		HTMLURL:   github.String("https://github.com/openclaw/openclaw/issues/7"),
	}

	issue := convertIssue(item)
	if issue.Number != 7 || issue.Reactions != 12 || issue.Author != "bob" {
		t.Fatalf("unexpected conversion: %+v", issue)
	}
	if !issue.ClosedAt.IsZero() {
		t.Fatalf("open issue ClosedAt = %v, want zero", issue.ClosedAt)
	}
}
