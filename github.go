package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

const searchDateLayout = "2006-01-02"

// ActivityFetcher pulls one repository's weekly activity from the GitHub
// API. Every sub-query degrades to a zero value on failure; a snapshot is
// always returned.
type ActivityFetcher struct {
	client    *github.Client
	topIssues int
}

func NewActivityFetcher(token string, topIssues int) *ActivityFetcher {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(context.Background(), ts)
	}
	return &ActivityFetcher{
		client:    github.NewClient(hc),
		topIssues: topIssues,
	}
}

// Fetch dispatches the five sub-queries concurrently and joins them before
// returning. Each goroutine owns exactly one snapshot field.
func (f *ActivityFetcher) Fetch(ctx context.Context, owner, name string, period Period) RepoSnapshot {
	snap := RepoSnapshot{Owner: owner, Name: name, Period: period}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); snap.Metadata = f.fetchMetadata(ctx, owner, name) }()
	go func() { defer wg.Done(); snap.CommitCount = f.fetchCommitCount(ctx, owner, name, period) }()
	go func() { defer wg.Done(); snap.Releases = f.fetchReleases(ctx, owner, name, period) }()
	go func() { defer wg.Done(); snap.PullRequests = f.fetchPullRequests(ctx, owner, name, period) }()
	go func() { defer wg.Done(); snap.Issues = f.fetchIssues(ctx, owner, name, period) }()
	wg.Wait()

	log.Printf("fetch done repo=%s/%s commits=%d prs=%d issues=%d releases=%d",
		owner, name, snap.CommitCount, snap.PullRequests.Total, snap.Issues.Total, len(snap.Releases))
	return snap
}

func (f *ActivityFetcher) fetchMetadata(ctx context.Context, owner, name string) RepoMetadata {
	repo, _, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		log.Printf("fetch metadata repo=%s/%s error: %v", owner, name, err)
		return RepoMetadata{}
	}
	return RepoMetadata{
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		OpenIssues:  repo.GetOpenIssuesCount(),
		Language:    repo.GetLanguage(),
		Description: repo.GetDescription(),
		LastUpdated: repo.GetUpdatedAt().Time,
	}
}

// fetchCommitCount prefers the exact server-side count from the commit
// search endpoint. When that query errors it counts a single listing page
// instead; that fallback undercounts weeks busier than one page.
func (f *ActivityFetcher) fetchCommitCount(ctx context.Context, owner, name string, period Period) int {
	query := fmt.Sprintf("repo:%s/%s committer-date:%s", owner, name, searchRange(period))
	result, _, err := f.client.Search.Commits(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err == nil {
		return result.GetTotal()
	}
	log.Printf("fetch commit count repo=%s/%s search failed, falling back to listing: %v", owner, name, err)

	commits, _, err := f.client.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
		Since:       period.Start,
		Until:       period.End,
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		log.Printf("fetch commit count repo=%s/%s listing failed: %v", owner, name, err)
		return 0
	}
	return len(commits)
}

func (f *ActivityFetcher) fetchReleases(ctx context.Context, owner, name string, period Period) []Release {
	apiReleases, _, err := f.client.Repositories.ListReleases(ctx, owner, name, &github.ListOptions{PerPage: 100})
	if err != nil {
		log.Printf("fetch releases repo=%s/%s error: %v", owner, name, err)
		return nil
	}
	var releases []Release
	for _, rel := range apiReleases {
		releases = append(releases, Release{
			Tag:         rel.GetTagName(),
			Title:       rel.GetName(),
			PublishedAt: rel.GetPublishedAt().Time,
			Prerelease:  rel.GetPrerelease(),
			Draft:       rel.GetDraft(),
			Body:        rel.GetBody(),
			HTMLURL:     rel.GetHTMLURL(),
		})
	}
	return filterReleases(releases, period)
}

// filterReleases keeps releases published inside the period, boundaries
// inclusive. Drafts carry no publish time and are dropped.
func filterReleases(releases []Release, period Period) []Release {
	var kept []Release
	for _, rel := range releases {
		if rel.Draft || rel.PublishedAt.IsZero() {
			continue
		}
		if rel.PublishedAt.Before(period.Start) || rel.PublishedAt.After(period.End) {
			continue
		}
		kept = append(kept, rel)
	}
	return kept
}

func (f *ActivityFetcher) fetchPullRequests(ctx context.Context, owner, name string, period Period) PullRequestActivity {
	query := fmt.Sprintf("repo:%s/%s is:pr created:%s", owner, name, searchRange(period))
	result, _, err := f.client.Search.Issues(ctx, query, &github.SearchOptions{
		Sort:        "created",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		log.Printf("fetch pull requests repo=%s/%s error: %v", owner, name, err)
		return PullRequestActivity{}
	}

	activity := PullRequestActivity{Total: result.GetTotal()}
	closedOnPage := 0
	for _, item := range result.Issues {
		pr := convertPullRequest(item)
		activity.Items = append(activity.Items, pr)
		switch pr.State {
		case "open":
			activity.Open++
		case "closed":
			closedOnPage++
		}
	}

	// Merged count via a second exact count query; the conflated search
	// items don't say whether a closed PR was merged.
	mergedQuery := fmt.Sprintf("repo:%s/%s is:pr is:merged merged:%s", owner, name, searchRange(period))
	mergedResult, _, err := f.client.Search.Issues(ctx, mergedQuery, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		// Fallback approximation: treat closed page items as merged.
		log.Printf("fetch merged count repo=%s/%s failed, approximating from page items: %v", owner, name, err)
		activity.Merged = closedOnPage
	} else {
		activity.Merged = mergedResult.GetTotal()
	}
	return activity
}

func (f *ActivityFetcher) fetchIssues(ctx context.Context, owner, name string, period Period) IssueActivity {
	query := fmt.Sprintf("repo:%s/%s is:issue created:%s", owner, name, searchRange(period))
	result, _, err := f.client.Search.Issues(ctx, query, &github.SearchOptions{
		Sort:        "reactions",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: 50},
	})
	if err != nil {
		log.Printf("fetch issues repo=%s/%s error: %v", owner, name, err)
		return IssueActivity{}
	}

	var issues []IssueSummary
	for _, item := range result.Issues {
		// The search endpoint returns pull requests among issues.
		if item.IsPullRequest() {
			continue
		}
		issues = append(issues, convertIssue(item))
	}
	return IssueActivity{
		Total: result.GetTotal(),
		Top:   rankIssues(issues, f.topIssues),
	}
}

// rankIssues keeps the top limit issues by reaction count. The sort is
// stable so equal counts retain the search-returned order.
func rankIssues(issues []IssueSummary, limit int) []IssueSummary {
	ranked := make([]IssueSummary, len(issues))
	copy(ranked, issues)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Reactions > ranked[j].Reactions
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func convertPullRequest(item *github.Issue) PullRequestSummary {
	pr := PullRequestSummary{
		Number:    item.GetNumber(),
		Title:     item.GetTitle(),
		State:     item.GetState(),
		Author:    item.GetUser().GetLogin(),
		CreatedAt: item.GetCreatedAt().Time,
		HTMLURL:   item.GetHTMLURL(),
	}
	// The search API omits merged_at; closed_at is the closest stand-in
	// for closed PRs and stays zero for open ones.
	if pr.State == "closed" {
		pr.MergedAt = item.GetClosedAt().Time
	}
	return pr
}

func convertIssue(item *github.Issue) IssueSummary {
	return IssueSummary{
		Number:    item.GetNumber(),
		Title:     item.GetTitle(),
		State:     item.GetState(),
		Author:    item.GetUser().GetLogin(),
		Reactions: item.GetReactions().GetTotalCount(),
		CreatedAt: item.GetCreatedAt().Time,
		ClosedAt:  item.GetClosedAt().Time,
		HTMLURL:   item.GetHTMLURL(),
	}
}

func searchRange(period Period) string {
	return fmt.Sprintf("%s..%s", period.Start.Format(searchDateLayout), period.End.Format(searchDateLayout))
}
