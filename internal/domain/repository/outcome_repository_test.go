package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/platform/database"
)

// Needs a real Postgres; set TEST_DATABASE_URL to run.
func TestPgOutcomeRepository(t *testing.T) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, connStr)
	require.NoError(t, err)
	defer db.Close()

	repo := NewPgOutcomeRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	leetcodeID := "journal-" + uuid.NewString()
	window := model.Window{
		Start: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC),
	}
	res := model.RunResult{
		RunID: uuid.NewString(),
		User:  model.User{Name: "Zoe", LeetCodeID: leetcodeID},
		Outcome: &model.AccountabilityOutcome{
			Kind:           model.OutcomeCharged,
			TotalQuestions: 3,
			Shortfall:      2,
			Charge:         decimal.NewFromInt(20),
		},
		ExpenseID: "998877",
	}
	require.NoError(t, repo.Record(ctx, window, res))

	err = repo.Record(ctx, window, res)
	require.ErrorIs(t, err, common.ErrConflict)

	failed := model.RunResult{RunID: uuid.NewString(), User: res.User, Err: errors.New("source down")}
	require.NoError(t, repo.Record(ctx, window, failed))

	records, err := repo.ListByUser(ctx, leetcodeID, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byKind := map[model.OutcomeKind]OutcomeRecord{}
	for _, rec := range records {
		byKind[rec.Kind] = rec
	}
	charged := byKind[model.OutcomeCharged]
	assert.Equal(t, 2, charged.Shortfall)
	assert.True(t, charged.Charge.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, charged.ExpenseID)
	assert.Equal(t, "998877", *charged.ExpenseID)

	failedRec := byKind[model.OutcomeFailed]
	require.NotNil(t, failedRec.Error)
	assert.Equal(t, "source down", *failedRec.Error)
}
