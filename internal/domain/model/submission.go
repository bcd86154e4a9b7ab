package model

import (
	"sort"
	"time"
)

// SubmissionEvent is one accepted submission as reported by the submission
// source. The same ProblemID may appear many times.
type SubmissionEvent struct {
	ProblemID  string             `json:"problem_id"` // stable per-problem key (title slug)
	Title      string             `json:"title"`
	URL        string             `json:"url,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Difficulty *ProblemDifficulty `json:"difficulty,omitempty"` // nil until resolved
}

// HasDifficulty reports whether the event carries a resolved tier.
func (e SubmissionEvent) HasDifficulty() bool {
	return e.Difficulty != nil && e.Difficulty.Valid()
}

// UniqueSolve is a submission event that counts toward a quota.
type UniqueSolve struct {
	SubmissionEvent
}

// UserSubmissionRecord holds a user's unique solves partitioned by tier. Counts
// are always derived from the lists.
type UserSubmissionRecord struct {
	Username string        `json:"username"`
	Easy     []UniqueSolve `json:"easy"`
	Medium   []UniqueSolve `json:"medium"`
	Hard     []UniqueSolve `json:"hard"`
	// Unknown holds solves whose difficulty could not be resolved. They count
	// toward Total but toward no tier.
	Unknown []UniqueSolve `json:"unknown,omitempty"`
}

func NewUserSubmissionRecord(username string) *UserSubmissionRecord {
	return &UserSubmissionRecord{
		Username: username,
		Easy:     []UniqueSolve{},
		Medium:   []UniqueSolve{},
		Hard:     []UniqueSolve{},
	}
}

// Add appends a solve to the list for its tier. Callers add in timestamp order.
func (r *UserSubmissionRecord) Add(s UniqueSolve) {
	if !s.HasDifficulty() {
		r.Unknown = append(r.Unknown, s)
		return
	}
	switch *s.Difficulty {
	case DifficultyEasy:
		r.Easy = append(r.Easy, s)
	case DifficultyMedium:
		r.Medium = append(r.Medium, s)
	case DifficultyHard:
		r.Hard = append(r.Hard, s)
	}
}

func (r *UserSubmissionRecord) EasyCount() int   { return len(r.Easy) }
func (r *UserSubmissionRecord) MediumCount() int { return len(r.Medium) }
func (r *UserSubmissionRecord) HardCount() int   { return len(r.Hard) }

func (r *UserSubmissionRecord) TotalQuestions() int {
	return len(r.Easy) + len(r.Medium) + len(r.Hard) + len(r.Unknown)
}

// Solves returns every solve in the record ordered by timestamp.
func (r *UserSubmissionRecord) Solves() []UniqueSolve {
	all := make([]UniqueSolve, 0, r.TotalQuestions())
	all = append(all, r.Easy...)
	all = append(all, r.Medium...)
	all = append(all, r.Hard...)
	all = append(all, r.Unknown...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all
}

// UserStats is the flat per-user row shown in reports.
type UserStats struct {
	Username       string `json:"username"`
	TotalQuestions int    `json:"total_questions"`
	EasyCount      int    `json:"easy_count"`
	MediumCount    int    `json:"medium_count"`
	HardCount      int    `json:"hard_count"`
}

func StatsFromRecord(r *UserSubmissionRecord) UserStats {
	return UserStats{
		Username:       r.Username,
		TotalQuestions: r.TotalQuestions(),
		EasyCount:      r.EasyCount(),
		MediumCount:    r.MediumCount(),
		HardCount:      r.HardCount(),
	}
}
