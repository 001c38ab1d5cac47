package contracts

import "time"

// StudyRun is the persisted header of one event study run
type StudyRun struct {
	RunID            string    `json:"run_id"`
	Benchmark        string    `json:"benchmark"`
	EstimationWindow int       `json:"estimation_window"`
	LeadDays         int       `json:"lead_days"`
	LagDays          int       `json:"lag_days"`
	EventCount       int       `json:"event_count"`
	SkippedCount     int       `json:"skipped_count"`
	CreatedAt        time.Time `json:"created_at"`
}
