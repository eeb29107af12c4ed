package main

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// NotifyReportPosted posts a short completion notice to Slack. Best-effort:
// missing credentials or a failed call only produce a log line.
func NotifyReportPosted(cfg Config, weekIndex int, period Period, totals reportTotals, path string) {
	if cfg.SlackBotToken == "" || cfg.SlackChannelID == "" {
		return
	}

	api := slack.New(cfg.SlackBotToken)
	msg := fmt.Sprintf("第%d周周报已生成（%s）：提交 %d，PR %d，Issue %d，发布 %d\n文件：%s",
		weekIndex, period.Label(), totals.Commits, totals.PRs, totals.Issues, totals.Releases, path)

	_, _, err := api.PostMessage(cfg.SlackChannelID, slack.MsgOptionText(msg, false))
	if err != nil {
		log.Printf("slack notify error: %v", err)
		return
	}
	log.Printf("slack notify posted channel=%s week=%d", cfg.SlackChannelID, weekIndex)
}
