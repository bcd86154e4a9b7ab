package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OutcomeKind string

const (
	OutcomePending           OutcomeKind = "Pending"
	OutcomeGoalMet           OutcomeKind = "GoalMet"
	OutcomeNoBillingIdentity OutcomeKind = "NoBillingIdentity"
	OutcomeCharged           OutcomeKind = "Charged"
	OutcomeFailed            OutcomeKind = "Failed" // pipeline or decision error, see RunResult.Err
)

// Window is the inclusive time range a run covers.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days is the window length rounded to whole days, used in expense text.
func (w Window) Days() int {
	d := w.End.Sub(w.Start)
	return int((d + 12*time.Hour) / (24 * time.Hour))
}

// ExpenseShare is one line of a split: what a participant paid and owes.
type ExpenseShare struct {
	BillingID int64           `json:"billing_id"`
	PaidShare decimal.Decimal `json:"paid_share"`
	OwedShare decimal.Decimal `json:"owed_share"`
}

// AccountabilityOutcome is the decision taken for one user in one run.
type AccountabilityOutcome struct {
	Name           string          `json:"name"`
	Username       string          `json:"username"`
	Kind           OutcomeKind     `json:"kind"`
	Quota          int             `json:"quota"`
	TotalQuestions int             `json:"total_questions"`
	Shortfall      int             `json:"shortfall"`
	Charge         decimal.Decimal `json:"charge"`
	GroupID        *int64          `json:"group_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	Shares         []ExpenseShare  `json:"shares,omitempty"`
}

// Expense is what the ledger client posts.
type Expense struct {
	Cost           decimal.Decimal
	Description    string
	Details        string
	Date           time.Time
	GroupID        int64
	CurrencyCode   string
	CategoryID     int
	RepeatInterval string
	Users          []ExpenseShare
}

// RunResult is the terminal state of one user's pipeline. Exactly one of
// Outcome (possibly alongside Err for a failed ledger post) or Err describes it.
type RunResult struct {
	RunID     string                 `json:"run_id"`
	User      User                   `json:"user"`
	Record    *UserSubmissionRecord  `json:"record,omitempty"`
	Outcome   *AccountabilityOutcome `json:"outcome,omitempty"`
	ExpenseID string                 `json:"expense_id,omitempty"`
	Err       error                  `json:"-"`
}

func (r RunResult) Failed() bool {
	return r.Err != nil
}

// Kind returns the user's terminal state for this run.
func (r RunResult) Kind() OutcomeKind {
	if r.Err != nil {
		return OutcomeFailed
	}
	if r.Outcome == nil {
		return OutcomePending
	}
	return r.Outcome.Kind
}
