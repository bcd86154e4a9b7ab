package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cdr.dev/slog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/domain/repository"
)

// releaseLock deletes the lock only if we still own it.
var releaseLock = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// StatsRunner computes per-user stats for a window.
type StatsRunner interface {
	Run(ctx context.Context, users []model.User, window model.Window, charge bool) (string, []model.RunResult)
}

type ReportWorkerOptions struct {
	Interval     time.Duration
	LockKey      string
	LockTTL      time.Duration
	LookbackDays int
}

// ReportWorker periodically computes a stats report for every active user and
// stores it as the latest snapshot. A redis lock keeps concurrent API
// instances from refreshing at the same time.
type ReportWorker struct {
	rdb       *redis.Client
	runner    StatsRunner
	users     repository.UserRepository
	snapshots repository.SnapshotRepository
	opts      ReportWorkerOptions
	logger    slog.Logger
	now       func() time.Time
}

func NewReportWorker(
	rdb *redis.Client,
	runner StatsRunner,
	users repository.UserRepository,
	snapshots repository.SnapshotRepository,
	opts ReportWorkerOptions,
	logger slog.Logger,
) *ReportWorker {
	return &ReportWorker{
		rdb:       rdb,
		runner:    runner,
		users:     users,
		snapshots: snapshots,
		opts:      opts,
		logger:    logger.Named("report_worker"),
		now:       time.Now,
	}
}

// Start refreshes once immediately and then on every tick until ctx is done.
func (w *ReportWorker) Start(ctx context.Context) {
	w.logger.Info(ctx, "report worker started", slog.F("interval", w.opts.Interval))
	w.tick(ctx)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "report worker stopping")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ReportWorker) tick(ctx context.Context) {
	_, err := w.RefreshWithLock(ctx)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrLockNotAcquired):
		w.logger.Debug(ctx, "another instance is refreshing the report")
	case errors.Is(err, context.Canceled):
	default:
		w.logger.Error(ctx, "refreshing report failed", slog.Error(err))
	}
}

// RefreshWithLock refreshes the snapshot while holding the report lock. It
// returns ErrLockNotAcquired when another holder owns the lock.
func (w *ReportWorker) RefreshWithLock(ctx context.Context) (*model.ReportSnapshot, error) {
	lockValue := uuid.NewString()
	ok, err := w.rdb.SetNX(ctx, w.opts.LockKey, lockValue, w.opts.LockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring report lock %s: %w", w.opts.LockKey, err)
	}
	if !ok {
		return nil, common.ErrLockNotAcquired
	}

	defer func() {
		// The caller's ctx may already be cancelled; the lock must still go.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		deleted, err := releaseLock.Run(releaseCtx, w.rdb, []string{w.opts.LockKey}, lockValue).Int64()
		if err != nil {
			w.logger.Error(releaseCtx, "releasing report lock failed", slog.F("key", w.opts.LockKey), slog.Error(err))
		} else if deleted == 0 {
			w.logger.Warn(releaseCtx, "report lock expired before release", slog.F("key", w.opts.LockKey))
		}
	}()

	return w.Refresh(ctx)
}

// Refresh computes a fresh snapshot and saves it.
func (w *ReportWorker) Refresh(ctx context.Context) (*model.ReportSnapshot, error) {
	users, err := w.users.ActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active users: %w", err)
	}

	end := w.now().UTC()
	window := model.Window{Start: end.AddDate(0, 0, -w.opts.LookbackDays), End: end}
	runID, results := w.runner.Run(ctx, users, window, false)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := model.NewReportSnapshot(runID, end, window, results)
	if err := w.snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving report snapshot: %w", err)
	}
	w.logger.Info(ctx, "report refreshed",
		slog.F("run_id", runID),
		slog.F("users", len(snap.Stats)),
		slog.F("failures", len(snap.Failures)),
	)
	return &snap, nil
}

// Current returns the latest snapshot, computing one when none is stored yet.
func (w *ReportWorker) Current(ctx context.Context) (*model.ReportSnapshot, error) {
	snap, err := w.snapshots.Latest(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	w.logger.Info(ctx, "no report snapshot stored, computing on demand")
	snap, err = w.RefreshWithLock(ctx)
	if errors.Is(err, common.ErrLockNotAcquired) {
		return nil, fmt.Errorf("report is being generated: %w", common.ErrServiceUnavailable)
	}
	return snap, err
}
