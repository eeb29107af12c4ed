package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeSummarizer struct {
	kinds []AnalysisKind
}

func (f *fakeSummarizer) Summarize(ctx context.Context, kind AnalysisKind, payload string) string {
	f.kinds = append(f.kinds, kind)
	return "测试摘要(" + string(kind) + ")"
}

func TestTruncateRunes(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := truncateRunes(long, 200)
	if got != strings.Repeat("a", 200)+"..." {
		t.Fatalf("250-char body should truncate to 200 chars plus ellipsis, got length %d", len(got))
	}

	short := strings.Repeat("b", 150)
	if truncateRunes(short, 200) != short {
		t.Fatal("150-char body should render unmodified")
	}

	// Rune-safe: CJK text must not be cut mid-character.
	cjk := strings.Repeat("周", 10)
	if got := truncateRunes(cjk, 4); got != "周周周周..." {
		t.Fatalf("CJK truncation = %q", got)
	}
}

func TestRenderWeekOneScenario(t *testing.T) {
	period := PeriodFor(1)
	snap := RepoSnapshot{
		Owner:       "openclaw",
		Name:        "openclaw",
		CommitCount: 3,
		PullRequests: PullRequestActivity{
			Total:  1,
			Merged: 1,
			Items: []PullRequestSummary{
				{Number: 10, Title: "Add gateway retries", State: "closed", Author: "alice", HTMLURL: "https://example.com/pull/10"},
			},
		},
		Issues: IssueActivity{
			Total: 2,
			Top: []IssueSummary{
				{Number: 4, Title: "Crash on startup", Reactions: 5, Author: "bob", HTMLURL: "https://example.com/issues/4"},
				{Number: 6, Title: "Docs typo", Reactions: 0, Author: "carol", HTMLURL: "https://example.com/issues/6"},
			},
		},
		Period: period,
	}

	doc := renderWeeklyReport(context.Background(), []RepoSnapshot{snap}, 1, period, nil)

	if !strings.Contains(doc, "| [openclaw/openclaw](https://github.com/openclaw/openclaw) | 3 | 1 | 2 | 0 |") {
		t.Fatalf("overview row missing:\n%s", doc)
	}
	if !strings.Contains(doc, "本周暂无版本发布") {
		t.Fatal("expected no-release placeholder")
	}
	if !strings.Contains(doc, "- 提交总数：3") {
		t.Fatal("closing commit total should sum to 3")
	}
	if !strings.Contains(doc, "👍 5") {
		t.Fatal("top issue reaction count missing")
	}
}

func TestRenderClosingTotalsMatchSnapshotSums(t *testing.T) {
	period := PeriodFor(2)
	snapshots := []RepoSnapshot{
		{
			Owner: "openclaw", Name: "openclaw", CommitCount: 12,
			PullRequests: PullRequestActivity{Total: 4, Merged: 3, Open: 1},
			Issues:       IssueActivity{Total: 6},
			Releases:     []Release{{Tag: "v1.0.0", PublishedAt: period.Start, HTMLURL: "https://example.com/r"}},
			Period:       period,
		},
		{
			Owner: "openclaw", Name: "clawhub", CommitCount: 5,
			PullRequests: PullRequestActivity{Total: 2, Merged: 1, Open: 1},
			Issues:       IssueActivity{Total: 1},
			Period:       period,
		},
	}

	totals := aggregateTotals(snapshots)
	if totals.Commits != 17 || totals.PRs != 6 || totals.Issues != 7 || totals.Releases != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	doc := renderWeeklyReport(context.Background(), snapshots, 2, period, nil)
	for _, line := range []string{
		"- 提交总数：17",
		"- Pull Request 总数：6",
		"- Issue 总数：7",
		"- 版本发布：1",
	} {
		if !strings.Contains(doc, line) {
			t.Fatalf("closing section missing %q:\n%s", line, doc)
		}
	}
}

func TestRenderSkipsQuietRepos(t *testing.T) {
	period := PeriodFor(1)
	snapshots := []RepoSnapshot{
		{Owner: "openclaw", Name: "quietrepo", CommitCount: 2, Period: period},
	}

	doc := renderWeeklyReport(context.Background(), snapshots, 1, period, nil)
	if strings.Contains(doc, "### openclaw/quietrepo") {
		t.Fatal("repo without PR or issue activity should not get a breakdown section")
	}
	if !strings.Contains(doc, "本周各仓库暂无 PR 与 Issue 动态") {
		t.Fatal("expected quiet-week placeholder in breakdown section")
	}
}

func TestRenderReleaseBodyExcerpt(t *testing.T) {
	period := PeriodFor(1)
	longBody := strings.Repeat("x", 250)
	snap := RepoSnapshot{
		Owner: "openclaw", Name: "openclaw",
		Releases: []Release{{
			Tag:         "v2.0.0",
			Title:       "Big release",
			PublishedAt: period.Start,
			Body:        longBody,
			HTMLURL:     "https://example.com/v2",
		}},
		Period: period,
	}

	doc := renderWeeklyReport(context.Background(), []RepoSnapshot{snap}, 1, period, nil)
	if strings.Contains(doc, longBody) {
		t.Fatal("release body should be truncated")
	}
	if !strings.Contains(doc, strings.Repeat("x", 200)+"...") {
		t.Fatal("expected 200-char excerpt with ellipsis")
	}
	if strings.Contains(doc, "本周暂无版本发布") {
		t.Fatal("no-release placeholder should be absent when a release exists")
	}
}

func TestRenderInterleavesAISummaries(t *testing.T) {
	period := PeriodFor(1)
	snap := RepoSnapshot{
		Owner: "openclaw", Name: "openclaw", CommitCount: 1,
		PullRequests: PullRequestActivity{Total: 1, Open: 1, Items: []PullRequestSummary{{Number: 1, Title: "t", State: "open", HTMLURL: "u"}}},
		Issues:       IssueActivity{Total: 1, Top: []IssueSummary{{Number: 2, Title: "i", Reactions: 1, HTMLURL: "u"}}},
		Releases:     []Release{{Tag: "v1", PublishedAt: period.Start, HTMLURL: "u"}},
		Period:       period,
	}

	ai := &fakeSummarizer{}
	doc := renderWeeklyReport(context.Background(), []RepoSnapshot{snap}, 1, period, ai)

	if !strings.Contains(doc, "AI 解读：测试摘要(releases)") {
		t.Fatal("release AI analysis missing")
	}
	want := []AnalysisKind{KindReleases, KindPullRequests, KindIssues, KindCommits}
	if len(ai.kinds) != len(want) {
		t.Fatalf("summarizer invoked for kinds %v, want %v", ai.kinds, want)
	}
	for i, kind := range want {
		if ai.kinds[i] != kind {
			t.Fatalf("summarizer call %d = %s, want %s", i, ai.kinds[i], kind)
		}
	}
}

func TestWriteWeeklyDocument(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteWeeklyDocument("content one\n", filepath.Join(dir, "reports"), 3)
	if err != nil {
		t.Fatalf("WriteWeeklyDocument failed: %v", err)
	}
	if filepath.Base(path) != "03.md" {
		t.Fatalf("document filename = %s, want zero-padded 03.md", filepath.Base(path))
	}

	// Re-running the same index overwrites, never merges.
	if _, err := WriteWeeklyDocument("content two\n", filepath.Join(dir, "reports"), 3); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "content two\n" {
		t.Fatalf("unexpected content after overwrite err=%v content=%q", err, string(data))
	}
}

func TestReleasePayloadBoundsBody(t *testing.T) {
	rel := Release{Tag: "v1", Title: "t", Body: strings.Repeat("y", 3000)}
	payload := releasePayload(rel)
	if len(payload) > 2000 {
		t.Fatalf("release payload too large: %d", len(payload))
	}
	if !strings.Contains(payload, fmt.Sprintf("%q", "v1")) {
		t.Fatalf("payload missing tag: %s", payload)
	}
}
