package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cdr.dev/slog"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

// SubmissionSource is the external platform that reports accepted submissions.
type SubmissionSource interface {
	FetchRecent(ctx context.Context, username string, limit int) ([]model.SubmissionEvent, error)
	FetchDifficulty(ctx context.Context, problemID string) (model.ProblemDifficulty, error)
}

type SubmissionServiceOptions struct {
	// FetchLimit caps how many recent events are requested per user. The
	// source never returns full history.
	FetchLimit int
	// CountUnknownDifficulty keeps solves with no resolvable tier in the total.
	CountUnknownDifficulty bool
}

// SubmissionService turns a user's raw accepted submissions into unique solves.
type SubmissionService struct {
	source   SubmissionSource
	resolver *DifficultyResolver
	opts     SubmissionServiceOptions
	logger   slog.Logger
}

func NewSubmissionService(
	source SubmissionSource,
	resolver *DifficultyResolver,
	opts SubmissionServiceOptions,
	logger slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		source:   source,
		resolver: resolver,
		opts:     opts,
		logger:   logger.Named("submissions"),
	}
}

// ComputeUniqueSolves fetches the user's recent submissions and returns the
// deduplicated solves inside window, partitioned by difficulty.
func (s *SubmissionService) ComputeUniqueSolves(ctx context.Context, username string, window model.Window, minGap time.Duration) (*model.UserSubmissionRecord, error) {
	events, err := s.source.FetchRecent(ctx, username, s.opts.FetchLimit)
	if err != nil {
		return nil, classifySourceError(err)
	}

	inWindow := FilterWindow(events, window)
	resolved := s.resolver.ResolveAll(ctx, inWindow)
	solves := DedupSolves(resolved, minGap)
	record := BuildRecord(username, solves, s.opts.CountUnknownDifficulty)

	s.logger.Debug(ctx, "computed unique solves",
		slog.F("username", username),
		slog.F("fetched", len(events)),
		slog.F("in_window", len(inWindow)),
		slog.F("unique", record.TotalQuestions()),
	)
	return record, nil
}

// classifySourceError folds source failures into the two pipeline-fatal kinds
// while keeping the original cause in the chain.
func classifySourceError(err error) error {
	if errors.Is(err, common.ErrSourceDataMalformed) || errors.Is(err, common.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
}

// FilterWindow keeps events with Start <= timestamp <= End.
func FilterWindow(events []model.SubmissionEvent, window model.Window) []model.SubmissionEvent {
	kept := make([]model.SubmissionEvent, 0, len(events))
	for _, ev := range events {
		if window.Contains(ev.Timestamp) {
			kept = append(kept, ev)
		}
	}
	return kept
}

// DedupSolves orders events by time and accepts an event for a problem only if
// it is the first for that problem, or at least minGap after the last accepted
// one. Rejected events do not move the watermark. With minGap <= 0 only the
// first event per problem is accepted.
func DedupSolves(events []model.SubmissionEvent, minGap time.Duration) []model.UniqueSolve {
	sorted := make([]model.SubmissionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	watermark := make(map[string]time.Time, len(sorted))
	solves := make([]model.UniqueSolve, 0, len(sorted))
	for _, ev := range sorted {
		last, seen := watermark[ev.ProblemID]
		if seen {
			if minGap <= 0 || ev.Timestamp.Sub(last) < minGap {
				continue
			}
		}
		watermark[ev.ProblemID] = ev.Timestamp
		solves = append(solves, model.UniqueSolve{SubmissionEvent: ev})
	}
	return solves
}

// BuildRecord partitions solves by tier, preserving their order.
func BuildRecord(username string, solves []model.UniqueSolve, countUnknown bool) *model.UserSubmissionRecord {
	record := model.NewUserSubmissionRecord(username)
	for _, s := range solves {
		if !s.HasDifficulty() && !countUnknown {
			continue
		}
		record.Add(s)
	}
	return record
}
