package service

import (
	"context"
	"testing"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/domain/repository"
)

func TestResolveUsesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource()
	src.difficulties["two-sum"] = model.DifficultyEasy
	cache := repository.NewMemoryDifficultyCache()
	require.NoError(t, cache.Set(ctx, "n-queens", model.DifficultyHard))

	r := NewDifficultyResolver(src, cache, 2, slogtest.Make(t, nil))

	d, err := r.Resolve(ctx, "n-queens")
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyHard, d)
	assert.Equal(t, int32(0), src.lookups.Load())

	for range 3 {
		d, err = r.Resolve(ctx, "two-sum")
		require.NoError(t, err)
		assert.Equal(t, model.DifficultyEasy, d)
	}
	assert.Equal(t, int32(1), src.lookups.Load())

	cached, ok, err := cache.Get(ctx, "two-sum")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.DifficultyEasy, cached)
}

func TestResolveFailure(t *testing.T) {
	t.Parallel()

	r := NewDifficultyResolver(newFakeSource(), repository.NewMemoryDifficultyCache(), 2, slogtest.Make(t, nil))
	_, err := r.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrDifficultyUnresolved)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestResolveAll(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.difficulties["two-sum"] = model.DifficultyEasy
	src.difficulties["lru-cache"] = model.DifficultyMedium
	r := NewDifficultyResolver(src, repository.NewMemoryDifficultyCache(), 2,
		slogtest.Make(t, &slogtest.Options{IgnoreErrors: true}))

	events := []model.SubmissionEvent{
		event("two-sum", at(0)),
		event("lru-cache", at(1)),
		event("two-sum", at(2)),
		eventWith("preset", at(3), model.DifficultyHard),
		event("missing", at(4)),
	}
	out := r.ResolveAll(context.Background(), events)
	require.Len(t, out, len(events))

	assert.Equal(t, model.DifficultyEasy, *out[0].Difficulty)
	assert.Equal(t, model.DifficultyMedium, *out[1].Difficulty)
	assert.Equal(t, model.DifficultyEasy, *out[2].Difficulty)
	assert.Equal(t, model.DifficultyHard, *out[3].Difficulty)
	assert.Nil(t, out[4].Difficulty)

	assert.Nil(t, events[0].Difficulty, "input is not modified")
	assert.Equal(t, int32(3), src.lookups.Load(), "two-sum, lru-cache and missing are looked up once each")
}
