package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)

func solve(id string, hours int, d *ProblemDifficulty) UniqueSolve {
	return UniqueSolve{SubmissionEvent: SubmissionEvent{
		ProblemID:  id,
		Timestamp:  t0.Add(time.Duration(hours) * time.Hour),
		Difficulty: d,
	}}
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ProblemDifficulty{"Easy": DifficultyEasy, "MEDIUM": DifficultyMedium, " hard ": DifficultyHard} {
		got, ok := ParseDifficulty(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseDifficulty("Extreme")
	assert.False(t, ok)
	assert.False(t, ProblemDifficulty("easy").Valid())
}

func TestUserSubmissionRecord(t *testing.T) {
	t.Parallel()

	r := NewUserSubmissionRecord("zoe")
	r.Add(solve("a", 3, DifficultyPtr(DifficultyHard)))
	r.Add(solve("b", 1, DifficultyPtr(DifficultyEasy)))
	r.Add(solve("c", 2, nil))
	r.Add(solve("d", 0, DifficultyPtr(DifficultyEasy)))

	assert.Equal(t, 2, r.EasyCount())
	assert.Equal(t, 0, r.MediumCount())
	assert.Equal(t, 1, r.HardCount())
	assert.Equal(t, 4, r.TotalQuestions(), "unknown solves count toward the total")

	var ids []string
	for _, s := range r.Solves() {
		ids = append(ids, s.ProblemID)
	}
	assert.Equal(t, []string{"d", "b", "c", "a"}, ids)

	stats := StatsFromRecord(r)
	assert.Equal(t, UserStats{Username: "zoe", TotalQuestions: 4, EasyCount: 2, HardCount: 1}, stats)
}

func TestWindow(t *testing.T) {
	t.Parallel()

	w := Window{Start: t0, End: t0.AddDate(0, 0, 7)}
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(w.End.Add(time.Nanosecond)))
	assert.Equal(t, 7, w.Days())
	assert.Equal(t, 1, Window{Start: t0, End: t0.Add(20 * time.Hour)}.Days())
}

func TestRunResultKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, OutcomePending, RunResult{}.Kind())
	assert.Equal(t, OutcomeGoalMet, RunResult{Outcome: &AccountabilityOutcome{Kind: OutcomeGoalMet}}.Kind())

	failed := RunResult{Outcome: &AccountabilityOutcome{Kind: OutcomeCharged}, Err: errors.New("ledger down")}
	assert.True(t, failed.Failed())
	assert.Equal(t, OutcomeFailed, failed.Kind())
}

func TestNewReportSnapshot(t *testing.T) {
	t.Parallel()

	rec := NewUserSubmissionRecord("zoe")
	rec.Add(solve("a", 1, DifficultyPtr(DifficultyMedium)))
	results := []RunResult{
		{User: User{LeetCodeID: "zoe"}, Record: rec},
		{User: User{LeetCodeID: "ben"}, Err: errors.New("source unavailable")},
	}

	snap := NewReportSnapshot("run-1", t0, Window{Start: t0, End: t0}, results)
	require.Len(t, snap.Stats, 1)
	assert.Equal(t, 1, snap.Stats[0].MediumCount)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, UserFailure{Username: "ben", Error: "source unavailable"}, snap.Failures[0])
}
