package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/domain/repository"
)

// Ledger posts computed penalty expenses.
type Ledger interface {
	CreateExpense(ctx context.Context, e model.Expense) (string, error)
}

// SolveCounter computes a user's unique solves for a window.
type SolveCounter interface {
	ComputeUniqueSolves(ctx context.Context, username string, window model.Window, minGap time.Duration) (*model.UserSubmissionRecord, error)
}

type AccountabilityOptions struct {
	CostPerQuestion decimal.Decimal
	MinGap          time.Duration
	Concurrency     int
	CurrencyCode    string
	CategoryID      int
	DryRun          bool // decide but never call the ledger
}

type AccountabilityService struct {
	solves   SolveCounter
	ledger   Ledger
	journal  repository.OutcomeRepository // optional
	opts     AccountabilityOptions
	logger   slog.Logger
	now      func() time.Time
	newRunID func() string
}

func NewAccountabilityService(
	solves SolveCounter,
	ledger Ledger,
	journal repository.OutcomeRepository,
	opts AccountabilityOptions,
	logger slog.Logger,
) *AccountabilityService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &AccountabilityService{
		solves:   solves,
		ledger:   ledger,
		journal:  journal,
		opts:     opts,
		logger:   logger.Named("accountability"),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Shortfall is max(0, quota - total).
func Shortfall(quota, total int) int {
	if total >= quota {
		return 0
	}
	return quota - total
}

// Decide computes the outcome for user given their record. peers are all the
// other users in the same run and each pays an equal share of a charge. A
// shortfall fails with ErrNoPeersForSplit when there are no peers, and with
// ErrPeerNotBillable when a peer has no billing identity to hold its share.
func Decide(user model.User, record *model.UserSubmissionRecord, peers []model.User, costPerQuestion decimal.Decimal, window model.Window) (*model.AccountabilityOutcome, error) {
	total := record.TotalQuestions()
	outcome := &model.AccountabilityOutcome{
		Name:           user.Name,
		Username:       user.LeetCodeID,
		Kind:           model.OutcomePending,
		Quota:          user.MinQuestions,
		TotalQuestions: total,
		Shortfall:      Shortfall(user.MinQuestions, total),
		Charge:         decimal.Zero,
		GroupID:        user.SplitwiseGroupID,
	}

	if outcome.Shortfall <= 0 {
		outcome.Kind = model.OutcomeGoalMet
		return outcome, nil
	}
	if !user.HasBillingIdentity() {
		outcome.Kind = model.OutcomeNoBillingIdentity
		return outcome, nil
	}

	if len(peers) == 0 {
		return nil, fmt.Errorf("charging %s for %d missed questions: %w", user.LeetCodeID, outcome.Shortfall, common.ErrNoPeersForSplit)
	}
	for _, p := range peers {
		if !p.HasBillingIdentity() {
			return nil, fmt.Errorf("charging %s: peer %s cannot take a share: %w", user.LeetCodeID, p.LeetCodeID, common.ErrPeerNotBillable)
		}
	}

	charge := costPerQuestion.Mul(decimal.NewFromInt(int64(outcome.Shortfall)))
	paid := SplitCharge(charge, len(peers))

	outcome.Kind = model.OutcomeCharged
	outcome.Charge = charge
	outcome.Description = fmt.Sprintf("Missed %d questions in the last %d days.", outcome.Shortfall, window.Days())
	outcome.Shares = make([]model.ExpenseShare, 0, len(peers)+1)
	outcome.Shares = append(outcome.Shares, model.ExpenseShare{
		BillingID: *user.SplitwiseID,
		PaidShare: decimal.Zero,
		OwedShare: charge,
	})
	for i, p := range peers {
		outcome.Shares = append(outcome.Shares, model.ExpenseShare{
			BillingID: *p.SplitwiseID,
			PaidShare: paid[i],
			OwedShare: decimal.Zero,
		})
	}
	return outcome, nil
}

// SplitCharge divides charge into n parts rounded to cents. Any rounding
// remainder goes to the first part so the parts always sum to charge.
func SplitCharge(charge decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	each := charge.DivRound(decimal.NewFromInt(int64(n)), 2)
	parts := make([]decimal.Decimal, n)
	sum := decimal.Zero
	for i := range parts {
		parts[i] = each
		sum = sum.Add(each)
	}
	parts[0] = parts[0].Add(charge.Sub(sum))
	return parts
}

// BuildExpense turns a charged outcome into the ledger's expense shape.
func BuildExpense(outcome *model.AccountabilityOutcome, window model.Window, opts AccountabilityOptions, date time.Time) model.Expense {
	var groupID int64
	if outcome.GroupID != nil {
		groupID = *outcome.GroupID
	}
	return model.Expense{
		Cost:        outcome.Charge,
		Description: outcome.Description,
		Details: fmt.Sprintf("%s solved %d of %d questions between %s and %s.",
			outcome.Username, outcome.TotalQuestions, outcome.Quota,
			window.Start.Format(time.DateOnly), window.End.Format(time.DateOnly)),
		Date:           date,
		GroupID:        groupID,
		CurrencyCode:   opts.CurrencyCode,
		CategoryID:     opts.CategoryID,
		RepeatInterval: "never",
		Users:          outcome.Shares,
	}
}

// Run processes every user independently and returns one result per user in
// input order. When charge is false only stats are computed. A failure for
// one user is recorded in that user's result and never affects the others.
func (s *AccountabilityService) Run(ctx context.Context, users []model.User, window model.Window, charge bool) (string, []model.RunResult) {
	runID := s.newRunID()
	logger := s.logger.With(slog.F("run_id", runID))
	logger.Info(ctx, "starting run",
		slog.F("users", len(users)),
		slog.F("window_start", window.Start),
		slog.F("window_end", window.End),
		slog.F("charge", charge),
	)

	results := make([]model.RunResult, len(users))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i := range users {
		g.Go(func() error {
			results[i] = s.runUser(ctx, logger, runID, i, users, window, charge)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info(ctx, "run finished", slog.F("summary", Summarize(results)))
	return runID, results
}

func (s *AccountabilityService) runUser(ctx context.Context, logger slog.Logger, runID string, idx int, users []model.User, window model.Window, charge bool) model.RunResult {
	user := users[idx]
	res := model.RunResult{RunID: runID, User: user}
	logger = logger.With(slog.F("username", user.LeetCodeID))

	record, err := s.solves.ComputeUniqueSolves(ctx, user.LeetCodeID, window, s.opts.MinGap)
	if err != nil {
		logger.Error(ctx, "computing unique solves failed", slog.Error(err))
		res.Err = err
		s.journalResult(ctx, logger, window, res, charge)
		return res
	}
	res.Record = record
	if !charge {
		return res
	}

	peers := make([]model.User, 0, len(users)-1)
	for j, u := range users {
		if j != idx {
			peers = append(peers, u)
		}
	}

	outcome, err := Decide(user, record, peers, s.opts.CostPerQuestion, window)
	if err != nil {
		logger.Error(ctx, "deciding outcome failed", slog.Error(err))
		res.Err = err
		s.journalResult(ctx, logger, window, res, charge)
		return res
	}
	res.Outcome = outcome

	switch {
	case outcome.Kind != model.OutcomeCharged:
		logger.Info(ctx, "no charge", slog.F("outcome", outcome.Kind), slog.F("total", outcome.TotalQuestions))
	case s.opts.DryRun:
		logger.Info(ctx, "dry run, skipping ledger", slog.F("charge", outcome.Charge.StringFixed(2)))
	default:
		expense := BuildExpense(outcome, window, s.opts, s.now())
		id, err := s.ledger.CreateExpense(ctx, expense)
		if err != nil {
			logger.Error(ctx, "posting expense failed", slog.Error(err))
			res.Err = fmt.Errorf("posting expense for %s: %w", user.LeetCodeID, err)
		} else {
			res.ExpenseID = id
		}
	}

	s.journalResult(ctx, logger, window, res, charge)
	return res
}

func (s *AccountabilityService) journalResult(ctx context.Context, logger slog.Logger, window model.Window, res model.RunResult, charge bool) {
	if s.journal == nil || !charge {
		return
	}
	if err := s.journal.Record(ctx, window, res); err != nil {
		logger.Warn(ctx, "journaling outcome failed", slog.Error(err))
	}
}

// Summarize counts terminal states, e.g. "1 charged, 2 goal met, 0 no billing identity, 1 failed".
func Summarize(results []model.RunResult) string {
	counts := map[model.OutcomeKind]int{}
	for _, r := range results {
		counts[r.Kind()]++
	}
	parts := []string{
		fmt.Sprintf("%d charged", counts[model.OutcomeCharged]),
		fmt.Sprintf("%d goal met", counts[model.OutcomeGoalMet]),
		fmt.Sprintf("%d no billing identity", counts[model.OutcomeNoBillingIdentity]),
		fmt.Sprintf("%d failed", counts[model.OutcomeFailed]),
	}
	if n := counts[model.OutcomePending]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d stats only", n))
	}
	return strings.Join(parts, ", ")
}

// JoinErrors joins every per-user error in results, or returns nil.
func JoinErrors(results []model.RunResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.User.LeetCodeID, r.Err))
		}
	}
	return errors.Join(errs...)
}
