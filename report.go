package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// releaseBodyLimit caps the release-body excerpt embedded in the document.
const releaseBodyLimit = 200

// prDisplayLimit caps the pull requests listed per repository.
const prDisplayLimit = 10

type sectionSummarizer interface {
	Summarize(ctx context.Context, kind AnalysisKind, payload string) string
}

type reportTotals struct {
	Commits  int
	PRs      int
	Issues   int
	Releases int
}

func aggregateTotals(snapshots []RepoSnapshot) reportTotals {
	var totals reportTotals
	for _, s := range snapshots {
		totals.Commits += s.CommitCount
		totals.PRs += s.PullRequests.Total
		totals.Issues += s.Issues.Total
		totals.Releases += len(s.Releases)
	}
	return totals
}

// renderWeeklyReport assembles the markdown document. Output is
// deterministic except for the optional AI text; ai may be nil.
func renderWeeklyReport(ctx context.Context, snapshots []RepoSnapshot, weekIndex int, period Period, ai sectionSummarizer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# OpenClaw 周报 第%d周（%s）\n\n", weekIndex, period.Label())
	fmt.Fprintf(&b, "> 统计周期：%s ~ %s\n\n", period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))

	writeOverviewSection(&b, snapshots)
	writeReleaseSection(ctx, &b, snapshots, ai)
	writeBreakdownSection(ctx, &b, snapshots, ai)
	writeClosingSection(ctx, &b, snapshots, ai)

	return b.String()
}

func writeOverviewSection(b *strings.Builder, snapshots []RepoSnapshot) {
	b.WriteString("## 本周概览\n\n")
	b.WriteString("| 仓库 | 提交 | PR | Issue | 发布 |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: |\n")
	for _, s := range snapshots {
		fmt.Fprintf(b, "| [%s](https://github.com/%s) | %d | %d | %d | %d |\n",
			s.FullName(), s.FullName(), s.CommitCount, s.PullRequests.Total, s.Issues.Total, len(s.Releases))
	}
	b.WriteString("\n")
}

func writeReleaseSection(ctx context.Context, b *strings.Builder, snapshots []RepoSnapshot, ai sectionSummarizer) {
	b.WriteString("## 重点更新\n\n")

	released := false
	for _, s := range snapshots {
		for _, rel := range s.Releases {
			released = true
			title := rel.Title
			if title == "" {
				title = rel.Tag
			}
			fmt.Fprintf(b, "### [%s %s](%s)\n\n", s.Name, title, rel.HTMLURL)
			fmt.Fprintf(b, "- 标签：`%s`\n", rel.Tag)
			fmt.Fprintf(b, "- 发布时间：%s", rel.PublishedAt.Format("2006-01-02"))
			if rel.Prerelease {
				b.WriteString("（预发布）")
			}
			b.WriteString("\n\n")

			if ai != nil {
				if text := ai.Summarize(ctx, KindReleases, releasePayload(rel)); text != "" {
					fmt.Fprintf(b, "> AI 解读：%s\n\n", text)
				}
			}
			if body := strings.TrimSpace(rel.Body); body != "" {
				fmt.Fprintf(b, "%s\n\n", truncateRunes(body, releaseBodyLimit))
			}
		}
	}
	if !released {
		b.WriteString("本周暂无版本发布。\n\n")
	}
}

func writeBreakdownSection(ctx context.Context, b *strings.Builder, snapshots []RepoSnapshot, ai sectionSummarizer) {
	b.WriteString("## 仓库动态\n\n")

	active := false
	for _, s := range snapshots {
		if !s.HasActivity() {
			continue
		}
		active = true
		fmt.Fprintf(b, "### %s\n\n", s.FullName())
		fmt.Fprintf(b, "⭐ %d · Fork %d · 未关闭 Issue %d\n\n", s.Metadata.Stars, s.Metadata.Forks, s.Metadata.OpenIssues)

		if s.PullRequests.Total > 0 {
			fmt.Fprintf(b, "#### Pull Requests（共 %d 个，合并 %d，开放 %d）\n\n",
				s.PullRequests.Total, s.PullRequests.Merged, s.PullRequests.Open)
			for i, pr := range s.PullRequests.Items {
				if i >= prDisplayLimit {
					break
				}
				fmt.Fprintf(b, "- [#%d %s](%s) @%s（%s）\n", pr.Number, pr.Title, pr.HTMLURL, pr.Author, prStateLabel(pr.State))
			}
			b.WriteString("\n")
			if ai != nil {
				if text := ai.Summarize(ctx, KindPullRequests, pullRequestPayload(s)); text != "" {
					fmt.Fprintf(b, "> AI 解读：%s\n\n", text)
				}
			}
		}

		if len(s.Issues.Top) > 0 {
			fmt.Fprintf(b, "#### 热门 Issues（共 %d 个）\n\n", s.Issues.Total)
			for _, issue := range s.Issues.Top {
				fmt.Fprintf(b, "- [#%d %s](%s) 👍 %d @%s\n", issue.Number, issue.Title, issue.HTMLURL, issue.Reactions, issue.Author)
			}
			b.WriteString("\n")
			if ai != nil {
				if text := ai.Summarize(ctx, KindIssues, issuePayload(s)); text != "" {
					fmt.Fprintf(b, "> AI 解读：%s\n\n", text)
				}
			}
		}
	}
	if !active {
		b.WriteString("本周各仓库暂无 PR 与 Issue 动态。\n\n")
	}
}

// writeClosingSection emits the aggregate totals; each line equals the sum
// of the matching per-snapshot field.
func writeClosingSection(ctx context.Context, b *strings.Builder, snapshots []RepoSnapshot, ai sectionSummarizer) {
	totals := aggregateTotals(snapshots)

	b.WriteString("## 本周数据汇总\n\n")
	fmt.Fprintf(b, "- 提交总数：%d\n", totals.Commits)
	fmt.Fprintf(b, "- Pull Request 总数：%d\n", totals.PRs)
	fmt.Fprintf(b, "- Issue 总数：%d\n", totals.Issues)
	fmt.Fprintf(b, "- 版本发布：%d\n", totals.Releases)

	if ai != nil {
		if text := ai.Summarize(ctx, KindCommits, commitPayload(snapshots)); text != "" {
			fmt.Fprintf(b, "\n> AI 小结：%s\n", text)
		}
	}
}

func prStateLabel(state string) string {
	switch state {
	case "open":
		return "开放"
	case "closed":
		return "已关闭"
	default:
		return state
	}
}

// truncateRunes caps s at limit runes, appending an ellipsis marker when
// anything was cut.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func releasePayload(rel Release) string {
	return mustJSON(map[string]string{
		"tag":   rel.Tag,
		"title": rel.Title,
		"body":  truncateRunes(rel.Body, 1500),
	})
}

func pullRequestPayload(s RepoSnapshot) string {
	titles := make([]string, 0, len(s.PullRequests.Items))
	for _, pr := range s.PullRequests.Items {
		titles = append(titles, fmt.Sprintf("#%d %s (%s)", pr.Number, pr.Title, pr.State))
	}
	return mustJSON(map[string]any{
		"repo":   s.FullName(),
		"total":  s.PullRequests.Total,
		"merged": s.PullRequests.Merged,
		"open":   s.PullRequests.Open,
		"items":  titles,
	})
}

func issuePayload(s RepoSnapshot) string {
	titles := make([]string, 0, len(s.Issues.Top))
	for _, issue := range s.Issues.Top {
		titles = append(titles, fmt.Sprintf("#%d %s (+%d)", issue.Number, issue.Title, issue.Reactions))
	}
	return mustJSON(map[string]any{
		"repo":  s.FullName(),
		"total": s.Issues.Total,
		"top":   titles,
	})
}

func commitPayload(snapshots []RepoSnapshot) string {
	counts := make(map[string]int, len(snapshots))
	for _, s := range snapshots {
		counts[s.FullName()] = s.CommitCount
	}
	return mustJSON(counts)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// WriteWeeklyDocument persists the document under its zero-padded week
// filename, overwriting any previous run for the same index.
func WriteWeeklyDocument(content, reportsDir string, weekIndex int) (string, error) {
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(reportsDir, fmt.Sprintf("%02d.md", weekIndex))
	return path, os.WriteFile(path, []byte(content), 0644)
}
