package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

func TestRedisSnapshotRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	repo := NewRedisSnapshotRepository(rdb, "report:latest", time.Hour)

	_, err := repo.Latest(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)

	snap := model.ReportSnapshot{
		RunID:       "run-1",
		GeneratedAt: time.Date(2025, 4, 14, 12, 0, 0, 0, time.UTC),
		Stats: []model.UserStats{
			{Username: "zoe_codes", TotalQuestions: 4, EasyCount: 2, MediumCount: 1, HardCount: 1},
		},
		Failures: []model.UserFailure{{Username: "adam42", Error: "source down"}},
	}
	require.NoError(t, repo.Save(ctx, snap))

	got, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.RunID, got.RunID)
	assert.True(t, snap.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, snap.Stats, got.Stats)
	assert.Equal(t, snap.Failures, got.Failures)

	mr.FastForward(2 * time.Hour)
	_, err = repo.Latest(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)
}
