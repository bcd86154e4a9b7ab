package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/domain/repository"
)

var baseTime = time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)

func at(hours float64) time.Time {
	return baseTime.Add(time.Duration(hours * float64(time.Hour)))
}

func event(problemID string, ts time.Time) model.SubmissionEvent {
	return model.SubmissionEvent{ProblemID: problemID, Title: problemID, Timestamp: ts}
}

func eventWith(problemID string, ts time.Time, d model.ProblemDifficulty) model.SubmissionEvent {
	ev := event(problemID, ts)
	ev.Difficulty = model.DifficultyPtr(d)
	return ev
}

type fakeSource struct {
	mu           sync.Mutex
	events       map[string][]model.SubmissionEvent
	fetchErr     map[string]error
	difficulties map[string]model.ProblemDifficulty
	lastLimit    int
	lookups      atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events:       map[string][]model.SubmissionEvent{},
		fetchErr:     map[string]error{},
		difficulties: map[string]model.ProblemDifficulty{},
	}
}

func (f *fakeSource) FetchRecent(_ context.Context, username string, limit int) ([]model.SubmissionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	if err := f.fetchErr[username]; err != nil {
		return nil, err
	}
	events := f.events[username]
	if len(events) > limit {
		events = events[:limit]
	}
	out := make([]model.SubmissionEvent, len(events))
	copy(out, events)
	return out, nil
}

func (f *fakeSource) FetchDifficulty(_ context.Context, problemID string) (model.ProblemDifficulty, error) {
	f.lookups.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.difficulties[problemID]
	if !ok {
		return "", fmt.Errorf("problem %s: %w", problemID, common.ErrNotFound)
	}
	return d, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	expenses []model.Expense
	err      error
}

func (l *fakeLedger) CreateExpense(_ context.Context, e model.Expense) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	l.expenses = append(l.expenses, e)
	return fmt.Sprintf("exp-%d", len(l.expenses)), nil
}

type fakeJournal struct {
	mu      sync.Mutex
	results []model.RunResult
}

func (j *fakeJournal) EnsureSchema(context.Context) error { return nil }

func (j *fakeJournal) Record(_ context.Context, _ model.Window, res model.RunResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = append(j.results, res)
	return nil
}

func (j *fakeJournal) ListByUser(context.Context, string, int) ([]repository.OutcomeRecord, error) {
	return nil, nil
}
