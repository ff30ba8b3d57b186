package models

import "time"

// SearchResult is one hit produced by a cron run. Rows are immutable: they are
// bulk-inserted by the executor and only ever deleted by the retention operation.
type SearchResult struct {
	ID         string    `json:"id"`
	CronID     string    `json:"cron_id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	URL        string    `json:"url"`
	Source     string    `json:"source"`
	SearchDate time.Time `json:"search_date"`
	CreatedAt  time.Time `json:"created_at"`
}
