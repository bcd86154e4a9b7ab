package model

import "time"

// ReportSnapshot is a rendered-ready copy of one stats run, cached for the API.
type ReportSnapshot struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Window      Window        `json:"window"`
	Stats       []UserStats   `json:"stats"`
	Failures    []UserFailure `json:"failures,omitempty"`
}

// UserFailure reports a user whose pipeline failed in a run.
type UserFailure struct {
	Username string `json:"username"`
	Error    string `json:"error"`
}

// NewReportSnapshot collects the stats rows and failures of a run, in run order.
func NewReportSnapshot(runID string, generatedAt time.Time, window Window, results []RunResult) ReportSnapshot {
	snap := ReportSnapshot{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Window:      window,
		Stats:       make([]UserStats, 0, len(results)),
	}
	for _, res := range results {
		if res.Record != nil {
			snap.Stats = append(snap.Stats, StatsFromRecord(res.Record))
		}
		if res.Err != nil {
			snap.Failures = append(snap.Failures, UserFailure{Username: res.User.LeetCodeID, Error: res.Err.Error()})
		}
	}
	return snap
}
