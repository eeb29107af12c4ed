package main

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartReportScheduler blocks, generating the current week's report on the
// configured cron schedule (standard 5-field expression).
func StartReportScheduler(cfg Config, generate func(weekIndex int) error) error {
	c := cron.New()
	_, err := c.AddFunc(cfg.Schedule, func() {
		week := CurrentWeekIndex(time.Now().UTC())
		log.Printf("scheduled run starting week=%d", week)
		if err := generate(week); err != nil {
			log.Printf("scheduled run week=%d error: %v", week, err)
		}
	})
	if err != nil {
		return err
	}

	log.Printf("Report scheduler started (cron: %s)", cfg.Schedule)
	c.Run()
	return nil
}
