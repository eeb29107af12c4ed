package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// reportFilePattern recognizes persisted weekly documents: exactly two
// digits plus the markdown extension.
var reportFilePattern = regexp.MustCompile(`^(\d{2})\.md$`)

// RegenerateIndexes re-derives the sidebar config and the homepage report
// list from the full set of on-disk weekly documents. A missing anchor or
// marker leaves the affected artifact byte-identical; nothing here is ever
// allowed to corrupt a file it cannot confidently locate.
func RegenerateIndexes(cfg Config) {
	weeks, err := scanReportWeeks(cfg.ReportsDir)
	if err != nil {
		log.Printf("index regenerate: scanning %s failed: %v", cfg.ReportsDir, err)
		return
	}
	if len(weeks) == 0 {
		log.Printf("index regenerate: no weekly documents under %s, nothing to do", cfg.ReportsDir)
		return
	}

	groups := groupReportsByMonth(weeks)
	latest := weeks[len(weeks)-1]

	rewriteSidebar(cfg, groups, latest)
	rewriteHomepage(cfg, groups)
}

func scanReportWeeks(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var weeks []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := reportFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		week, err := strconv.Atoi(m[1])
		if err != nil || week < 1 {
			continue
		}
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)
	return weeks, nil
}

type monthGroup struct {
	Month   string
	Entries []IndexEntry
}

// groupReportsByMonth buckets entries by the month of their period's end
// date. Buckets come back in descending chronological order, entries within
// a bucket in descending week order.
func groupReportsByMonth(weeks []int) []monthGroup {
	byMonth := make(map[string]*monthGroup)
	var order []string
	for _, week := range weeks {
		period := PeriodFor(week)
		entry := IndexEntry{
			WeekIndex: week,
			Title:     fmt.Sprintf("第%d周 (%s)", week, period.ShortLabel()),
			Link:      fmt.Sprintf("/reports/%02d", week),
			Month:     period.MonthBucket(),
			EndDate:   period.End,
		}
		group, ok := byMonth[entry.Month]
		if !ok {
			group = &monthGroup{Month: entry.Month}
			byMonth[entry.Month] = group
			order = append(order, entry.Month)
		}
		group.Entries = append(group.Entries, entry)
	}

	groups := make([]monthGroup, 0, len(order))
	for _, month := range order {
		group := *byMonth[month]
		sort.Slice(group.Entries, func(i, j int) bool {
			return group.Entries[i].WeekIndex > group.Entries[j].WeekIndex
		})
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		yi, mi := parseMonthBucket(groups[i].Month)
		yj, mj := parseMonthBucket(groups[j].Month)
		if yi != yj {
			return yi > yj
		}
		return mi > mj
	})
	return groups
}

func parseMonthBucket(bucket string) (int, int) {
	var year, month int
	fmt.Sscanf(bucket, "%d年%d月", &year, &month)
	return year, month
}

func rewriteSidebar(cfg Config, groups []monthGroup, latest int) {
	data, err := os.ReadFile(cfg.SidebarPath)
	if err != nil {
		log.Printf("index regenerate: reading sidebar %s failed: %v", cfg.SidebarPath, err)
		return
	}
	content := string(data)

	replaced, ok := replaceBalancedRegion(content, cfg.SidebarAnchor, renderSidebarGroups(groups))
	if !ok {
		log.Printf("Warning: sidebar anchor %q not found in %s, leaving it untouched", cfg.SidebarAnchor, cfg.SidebarPath)
		return
	}

	updated, ok := updateLatestLink(replaced, cfg.LatestReportLink, latest)
	if !ok {
		log.Printf("Warning: latest-report link %q not found in %s", cfg.LatestReportLink, cfg.SidebarPath)
		updated = replaced
	}

	if err := os.WriteFile(cfg.SidebarPath, []byte(updated), 0644); err != nil {
		log.Printf("index regenerate: writing sidebar %s failed: %v", cfg.SidebarPath, err)
		return
	}
	log.Printf("index regenerate: sidebar updated groups=%d latest=%02d", len(groups), latest)
}

func rewriteHomepage(cfg Config, groups []monthGroup) {
	data, err := os.ReadFile(cfg.HomepagePath)
	if err != nil {
		log.Printf("index regenerate: reading homepage %s failed: %v", cfg.HomepagePath, err)
		return
	}
	content := string(data)

	replaced, ok := replaceBetweenMarkers(content, cfg.HomepageStartMark, cfg.HomepageEndMark, renderHomepageList(groups))
	if !ok {
		log.Printf("Warning: homepage markers %q..%q not found in %s, leaving it untouched",
			cfg.HomepageStartMark, cfg.HomepageEndMark, cfg.HomepagePath)
		return
	}

	if err := os.WriteFile(cfg.HomepagePath, []byte(replaced), 0644); err != nil {
		log.Printf("index regenerate: writing homepage %s failed: %v", cfg.HomepagePath, err)
		return
	}
	log.Printf("index regenerate: homepage updated groups=%d", len(groups))
}

// renderSidebarGroups produces the nested JS array substituted into the
// VitePress sidebar, outer brackets included, no trailing separator (the
// original comma after the region is preserved by the replace).
func renderSidebarGroups(groups []monthGroup) string {
	var b strings.Builder
	b.WriteString("[\n")
	for _, group := range groups {
		b.WriteString("          {\n")
		fmt.Fprintf(&b, "            text: '%s',\n", group.Month)
		b.WriteString("            collapsed: false,\n")
		b.WriteString("            items: [\n")
		for _, entry := range group.Entries {
			fmt.Fprintf(&b, "              { text: '%s', link: '%s' },\n", entry.Title, entry.Link)
		}
		b.WriteString("            ],\n")
		b.WriteString("          },\n")
	}
	b.WriteString("        ]")
	return b.String()
}

func renderHomepageList(groups []monthGroup) string {
	var sections []string
	for _, group := range groups {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n", group.Month)
		for _, entry := range group.Entries {
			fmt.Fprintf(&b, "\n- [第%d周周报（%s）](./reports/%02d.md)", entry.WeekIndex, PeriodFor(entry.WeekIndex).ShortLabel(), entry.WeekIndex)
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

// replaceBalancedRegion finds anchor, then the first '[' after it, scans to
// the bracket-balanced ']' and requires a trailing ',' separator before
// substituting the span (brackets included) with replacement.
func replaceBalancedRegion(content, anchor, replacement string) (string, bool) {
	anchorIdx := strings.Index(content, anchor)
	if anchorIdx < 0 {
		return content, false
	}
	open := strings.Index(content[anchorIdx:], "[")
	if open < 0 {
		return content, false
	}
	open += anchorIdx

	depth := 0
	closeIdx := -1
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return content, false
	}

	rest := strings.TrimLeft(content[closeIdx+1:], " \t\r\n")
	if !strings.HasPrefix(rest, ",") {
		return content, false
	}

	return content[:open] + replacement + content[closeIdx+1:], true
}

// replaceBetweenMarkers swaps the span between two literal markers for
// replacement, keeping both markers in place.
func replaceBetweenMarkers(content, startMarker, endMarker, replacement string) (string, bool) {
	startIdx := strings.Index(content, startMarker)
	if startIdx < 0 {
		return content, false
	}
	searchFrom := startIdx + len(startMarker)
	endIdx := strings.Index(content[searchFrom:], endMarker)
	if endIdx < 0 {
		return content, false
	}
	endIdx += searchFrom

	return content[:startIdx+len(startMarker)] + "\n\n" + replacement + "\n\n" + content[endIdx:], true
}

// updateLatestLink points the named navigation entry at the highest week.
func updateLatestLink(content, linkText string, latest int) (string, bool) {
	re := regexp.MustCompile(`(text:\s*'` + regexp.QuoteMeta(linkText) + `',\s*link:\s*'/reports/)\d+(')`)
	if !re.MatchString(content) {
		return content, false
	}
	return re.ReplaceAllString(content, "${1}"+fmt.Sprintf("%02d", latest)+"${2}"), true
}
