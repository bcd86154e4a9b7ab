package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

var now = time.Date(2025, 4, 14, 18, 30, 0, 0, time.UTC)

func TestParseOptionalTime(t *testing.T) {
	t.Parallel()

	for _, unset := range []string{"", "none", "NULL", "  None "} {
		got, err := parseOptionalTime(unset)
		require.NoError(t, err, unset)
		assert.Nil(t, got, unset)
	}

	cases := map[string]time.Time{
		"2025-04-07T09:00:00Z":      time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC),
		"2025-04-07T10:00:00+01:00": time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC),
		"2025-04-07T09:00:00":       time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC),
		"2025-04-07":                time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseOptionalTime(in)
		require.NoError(t, err, in)
		require.NotNil(t, got, in)
		assert.True(t, want.Equal(*got), "%s: got %s", in, got)
	}

	_, err := parseOptionalTime("last tuesday")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestWindowFromDays(t *testing.T) {
	t.Parallel()

	w, err := windowFlags{days: 7}.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, now, w.End)
	assert.Equal(t, now.AddDate(0, 0, -7), w.Start)
	assert.Equal(t, 7, w.Days())
}

func TestWindowExplicitBounds(t *testing.T) {
	t.Parallel()

	w, err := windowFlags{days: 7, start: "2025-04-01", end: "2025-04-04"}.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Days())

	w, err = windowFlags{days: 2, end: "2025-04-04"}.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), w.Start)

	_, err = windowFlags{start: "2025-04-05", end: "2025-04-04"}.resolve(now)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = windowFlags{days: 0}.resolve(now)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestCompletionMessage(t *testing.T) {
	t.Parallel()

	results := []model.RunResult{
		{User: model.User{Name: "Zoe"}, Outcome: &model.AccountabilityOutcome{Kind: model.OutcomeCharged, Shortfall: 2, Charge: decimal.NewFromInt(20)}},
		{User: model.User{Name: "Mia"}, Outcome: &model.AccountabilityOutcome{Kind: model.OutcomeGoalMet}},
	}
	msg := completionMessage(results, false)
	assert.Contains(t, msg, "Zoe charged 20.00 for 2 missed questions.")
	assert.Contains(t, msg, "1 charged, 1 goal met, 0 no billing identity, 0 failed")

	assert.Contains(t, completionMessage(results, true), "Zoe would be charged 20.00")
	assert.Contains(t, completionMessage(results[1:], false), "Everyone met their goal.")
}
