package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cdr.dev/slog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/domain/repository"
)

// DifficultyFetcher looks up a single problem's tier.
type DifficultyFetcher interface {
	FetchDifficulty(ctx context.Context, problemID string) (model.ProblemDifficulty, error)
}

// DifficultyResolver fills in missing difficulties through a cache. Concurrent
// lookups of one problem share a single request.
type DifficultyResolver struct {
	fetcher     DifficultyFetcher
	cache       repository.DifficultyCache
	concurrency int
	group       singleflight.Group
	logger      slog.Logger
}

func NewDifficultyResolver(fetcher DifficultyFetcher, cache repository.DifficultyCache, concurrency int, logger slog.Logger) *DifficultyResolver {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &DifficultyResolver{
		fetcher:     fetcher,
		cache:       cache,
		concurrency: concurrency,
		logger:      logger.Named("difficulty"),
	}
}

// Resolve returns the tier for problemID, consulting the cache first.
func (r *DifficultyResolver) Resolve(ctx context.Context, problemID string) (model.ProblemDifficulty, error) {
	if d, ok, err := r.cache.Get(ctx, problemID); err == nil && ok {
		return d, nil
	} else if err != nil {
		r.logger.Warn(ctx, "difficulty cache read failed", slog.F("problem_id", problemID), slog.Error(err))
	}

	v, err, _ := r.group.Do(problemID, func() (interface{}, error) {
		d, err := r.fetcher.FetchDifficulty(ctx, problemID)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, problemID, d); err != nil {
			r.logger.Warn(ctx, "difficulty cache write failed", slog.F("problem_id", problemID), slog.Error(err))
		}
		return d, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", common.ErrDifficultyUnresolved, problemID, err)
	}
	return v.(model.ProblemDifficulty), nil
}

// ResolveAll returns a copy of events with difficulties filled in where they
// can be. An event whose lookup fails keeps a nil difficulty; the failure is
// logged and never returned.
func (r *DifficultyResolver) ResolveAll(ctx context.Context, events []model.SubmissionEvent) []model.SubmissionEvent {
	out := make([]model.SubmissionEvent, len(events))
	copy(out, events)

	pending := make(map[string]struct{})
	for _, ev := range out {
		if !ev.HasDifficulty() {
			pending[ev.ProblemID] = struct{}{}
		}
	}
	if len(pending) == 0 {
		return out
	}

	var (
		mu       sync.Mutex
		resolved = make(map[string]model.ProblemDifficulty, len(pending))
		g        errgroup.Group
	)
	g.SetLimit(r.concurrency)
	for problemID := range pending {
		g.Go(func() error {
			d, err := r.Resolve(ctx, problemID)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					r.logger.Warn(ctx, "treating problem as unknown difficulty",
						slog.F("problem_id", problemID), slog.Error(err))
				}
				return nil
			}
			mu.Lock()
			resolved[problemID] = d
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range out {
		if out[i].HasDifficulty() {
			continue
		}
		if d, ok := resolved[out[i].ProblemID]; ok {
			out[i].Difficulty = model.DifficultyPtr(d)
		} else {
			out[i].Difficulty = nil
		}
	}
	return out
}
