package model

import "strings"

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

// ParseDifficulty maps the platform's difficulty label onto a tier. Matching is
// case-insensitive; anything else reports ok=false.
func ParseDifficulty(s string) (ProblemDifficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

func (d ProblemDifficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// DifficultyPtr is a convenience for filling SubmissionEvent.Difficulty.
func DifficultyPtr(d ProblemDifficulty) *ProblemDifficulty {
	return &d
}
