package models

import "time"

// Cron frequencies. A cron only runs on the timer tick matching its frequency.
const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// ValidFrequency reports whether f is one of the supported cadences.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// Cron is a saved, recurring keyword search owned by a company.
// Name is unique per company. LastRunAt and SearchCount are maintained by the
// executor after each completed run.
type Cron struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags"`
	Keywords    string     `json:"keywords"`
	Frequency   string     `json:"frequency"`
	IsActive    bool       `json:"is_active"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	SearchCount int        `json:"search_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
