package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

// OutcomeRecord is one journaled decision.
type OutcomeRecord struct {
	ID             string            `json:"id"`
	RunID          string            `json:"run_id"`
	UserName       string            `json:"user_name"`
	LeetCodeID     string            `json:"leetcode_id"`
	WindowStart    time.Time         `json:"window_start"`
	WindowEnd      time.Time         `json:"window_end"`
	TotalQuestions int               `json:"total_questions"`
	Shortfall      int               `json:"shortfall"`
	Charge         decimal.Decimal   `json:"charge"`
	Kind           model.OutcomeKind `json:"kind"`
	ExpenseID      *string           `json:"expense_id,omitempty"`
	Error          *string           `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// OutcomeRepository journals each run's per-user result.
type OutcomeRepository interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, window model.Window, res model.RunResult) error
	ListByUser(ctx context.Context, leetcodeID string, limit int) ([]OutcomeRecord, error)
}

const outcomeSchema = `
CREATE TABLE IF NOT EXISTS accountability_outcomes (
	id              UUID PRIMARY KEY,
	run_id          TEXT NOT NULL,
	user_name       TEXT NOT NULL,
	leetcode_id     TEXT NOT NULL,
	window_start    TIMESTAMPTZ NOT NULL,
	window_end      TIMESTAMPTZ NOT NULL,
	total_questions INTEGER NOT NULL,
	shortfall       INTEGER NOT NULL,
	charge          NUMERIC(12, 2) NOT NULL,
	kind            TEXT NOT NULL,
	expense_id      TEXT,
	error           TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (run_id, leetcode_id)
)`

type pgOutcomeRepository struct {
	db *sql.DB
}

func NewPgOutcomeRepository(db *sql.DB) OutcomeRepository {
	return &pgOutcomeRepository{db: db}
}

func (r *pgOutcomeRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, outcomeSchema); err != nil {
		return fmt.Errorf("pgOutcomeRepository.EnsureSchema: %w", err)
	}
	return nil
}

func (r *pgOutcomeRepository) Record(ctx context.Context, window model.Window, res model.RunResult) error {
	var (
		total, shortfall int
		charge           = decimal.Zero
		expenseID        *string
		errText          *string
	)
	if res.Record != nil {
		total = res.Record.TotalQuestions()
	}
	if res.Outcome != nil {
		total = res.Outcome.TotalQuestions
		shortfall = res.Outcome.Shortfall
		charge = res.Outcome.Charge
	}
	if res.ExpenseID != "" {
		expenseID = &res.ExpenseID
	}
	if res.Err != nil {
		msg := res.Err.Error()
		errText = &msg
	}

	query := `INSERT INTO accountability_outcomes
	          (id, run_id, user_name, leetcode_id, window_start, window_end, total_questions, shortfall, charge, kind, expense_id, error)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), res.RunID, res.User.Name, res.User.LeetCodeID, window.Start, window.End,
		total, shortfall, charge, string(res.Kind()), expenseID, errText,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique (run_id, leetcode_id)
			return fmt.Errorf("outcome for %s in run %s already recorded: %w", res.User.LeetCodeID, res.RunID, common.ErrConflict)
		}
		return fmt.Errorf("pgOutcomeRepository.Record: %w", err)
	}
	return nil
}

func (r *pgOutcomeRepository) ListByUser(ctx context.Context, leetcodeID string, limit int) ([]OutcomeRecord, error) {
	query := `SELECT id, run_id, user_name, leetcode_id, window_start, window_end, total_questions, shortfall, charge, kind, expense_id, error, created_at
	          FROM accountability_outcomes WHERE leetcode_id = $1
	          ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, leetcodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgOutcomeRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	var records []OutcomeRecord
	for rows.Next() {
		var rec OutcomeRecord
		var kind string
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.UserName, &rec.LeetCodeID, &rec.WindowStart, &rec.WindowEnd,
			&rec.TotalQuestions, &rec.Shortfall, &rec.Charge, &kind, &rec.ExpenseID, &rec.Error, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgOutcomeRepository.ListByUser: scan: %w", err)
		}
		rec.Kind = model.OutcomeKind(kind)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgOutcomeRepository.ListByUser: %w", err)
	}
	return records, nil
}
