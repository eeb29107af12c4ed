package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "openclaw-weekly [weekIndex]",
	Short: "Generate the OpenClaw weekly activity report",
	Long: `Generates a weekly markdown report of repository activity (commits,
pull requests, issues, releases), optionally enriched with AI summaries,
and regenerates the docs site sidebar and homepage report lists.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		weekIndex := 1
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 1 {
				return fmt.Errorf("invalid week index '%s': must be an integer >= 1", args[0])
			}
			weekIndex = parsed
		}
		return runGenerate(LoadConfig(), weekIndex)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the weekly report generation on a cron schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := LoadConfig()
		return StartReportScheduler(cfg, func(weekIndex int) error {
			return runGenerate(cfg, weekIndex)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent report generation runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := LoadConfig()
		db, err := InitDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening history db: %w", err)
		}
		defer db.Close()

		runs, err := ListRuns(db, 20)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Week", "Period", "Repos", "Commits", "PRs", "Issues", "Releases", "Generated"})
		for _, run := range runs {
			table.Append([]string{
				fmt.Sprintf("%02d", run.WeekIndex),
				fmt.Sprintf("%s ~ %s", run.PeriodStart.Format("2006-01-02"), run.PeriodEnd.Format("2006-01-02")),
				fmt.Sprintf("%d", run.Repos),
				fmt.Sprintf("%d", run.Commits),
				fmt.Sprintf("%d", run.PRs),
				fmt.Sprintf("%d", run.Issues),
				fmt.Sprintf("%d", run.Releases),
				run.GeneratedAt.Format("2006-01-02 15:04"),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runGenerate is the whole pipeline for one week index: fetch snapshots
// repo by repo, render, persist, regenerate indexes, then the best-effort
// extras (history row, console table, Slack notice).
func runGenerate(cfg Config, weekIndex int) error {
	ctx := context.Background()
	period := PeriodFor(weekIndex)
	log.Printf("generate week=%d period=%s repos=%d", weekIndex, period.Label(), len(cfg.Repos))

	fetcher := NewActivityFetcher(cfg.GitHubToken, cfg.TopIssueLimit)
	summarizer := NewSummarizer(cfg)

	var snapshots []RepoSnapshot
	for i, repo := range cfg.Repos {
		if i > 0 {
			// Fixed politeness pause between repositories.
			time.Sleep(time.Duration(cfg.FetchDelaySeconds) * time.Second)
		}
		owner, name, ok := splitRepoFullName(repo)
		if !ok {
			log.Printf("Warning: skipping malformed repos entry '%s'", repo)
			continue
		}
		snapshots = append(snapshots, fetcher.Fetch(ctx, owner, name, period))
	}

	content := renderWeeklyReport(ctx, snapshots, weekIndex, period, summarizer)
	path, err := WriteWeeklyDocument(content, cfg.ReportsDir, weekIndex)
	if err != nil {
		return fmt.Errorf("writing weekly document: %w", err)
	}
	log.Printf("weekly document written path=%s size=%d", path, len(content))

	RegenerateIndexes(cfg)

	totals := aggregateTotals(snapshots)
	recordHistory(cfg, weekIndex, period, totals, len(snapshots))
	printSummaryTable(snapshots)
	NotifyReportPosted(cfg, weekIndex, period, totals, path)

	return nil
}

func recordHistory(cfg Config, weekIndex int, period Period, totals reportTotals, repos int) {
	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Printf("history db open error: %v", err)
		return
	}
	defer db.Close()

	err = RecordRun(db, ReportRun{
		WeekIndex:   weekIndex,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Repos:       repos,
		Commits:     totals.Commits,
		PRs:         totals.PRs,
		Issues:      totals.Issues,
		Releases:    totals.Releases,
	})
	if err != nil {
		log.Printf("history record error: %v", err)
	}
}

func printSummaryTable(snapshots []RepoSnapshot) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Repository", "Commits", "PRs", "Issues", "Releases"})
	for _, s := range snapshots {
		table.Append([]string{
			s.FullName(),
			fmt.Sprintf("%d", s.CommitCount),
			fmt.Sprintf("%d", s.PullRequests.Total),
			fmt.Sprintf("%d", s.Issues.Total),
			fmt.Sprintf("%d", len(s.Releases)),
		})
	}
	table.Render()
}
