package main

import (
	"context"
	"database/sql"
	"fmt"

	"cdr.dev/slog"
	"github.com/redis/go-redis/v9"

	"lc_accountability/internal/app/ledger"
	"lc_accountability/internal/app/service"
	"lc_accountability/internal/app/source"
	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/repository"
	"lc_accountability/internal/platform/cache"
	"lc_accountability/internal/platform/database"
	"lc_accountability/internal/platform/transport"
)

const userAgent = "lc-accountability/1.0"

// components are the long-lived collaborators shared by the subcommands.
type components struct {
	users          repository.UserRepository
	journal        repository.OutcomeRepository // nil when DATABASE_URL is unset
	submissions    *service.SubmissionService
	accountability *service.AccountabilityService
	rdb            *redis.Client // nil when REDIS_ADDR is unset
	db             *sql.DB       // nil when DATABASE_URL is unset
}

func (c *components) Close() {
	if c.rdb != nil {
		c.rdb.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}

// build wires config into services. Redis and Postgres are optional unless
// requireRedis is set.
func (c *cli) build(ctx context.Context, requireRedis bool) (*components, error) {
	cfg := c.cfg
	out := &components{users: repository.NewFileUserRepository(cfg.UsersFile)}

	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		out.rdb = rdb
		c.logger.Debug(ctx, "redis connected", slog.F("addr", cfg.RedisAddr))
	} else if requireRedis {
		return nil, fmt.Errorf("REDIS_ADDR is required for this command: %w", common.ErrValidation)
	}

	var journal repository.OutcomeRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.db = db
		journal = repository.NewPgOutcomeRepository(db)
		if err := journal.EnsureSchema(ctx); err != nil {
			out.Close()
			return nil, err
		}
		out.journal = journal
		c.logger.Debug(ctx, "outcome journal enabled")
	}

	sourceClient := transport.NewClient(c.logger.Named("http"), transport.Options{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.HTTPMaxRetries,
		UserAgent:  userAgent,
	})
	leetcode := source.NewLeetCodeClient(cfg.LeetCodeGraphQLURL, sourceClient, c.logger)

	difficulties := repository.NewMemoryDifficultyCache()
	if out.rdb != nil {
		difficulties = repository.NewTieredDifficultyCache(difficulties, repository.NewRedisDifficultyCache(out.rdb, cfg.DifficultyCacheTTL))
	}
	resolver := service.NewDifficultyResolver(leetcode, difficulties, cfg.Concurrency, c.logger)

	out.submissions = service.NewSubmissionService(leetcode, resolver, service.SubmissionServiceOptions{
		FetchLimit:             cfg.FetchLimit,
		CountUnknownDifficulty: cfg.CountUnknownDifficulty,
	}, c.logger)

	ledgerClient := ledger.NewHTTPClient(c.logger.Named("http"), cfg.HTTPTimeout, userAgent)
	splitwise := ledger.NewSplitwiseClient(cfg.SplitwiseAPIURL, cfg.SplitwiseAPIKey, ledgerClient, c.logger)
	out.accountability = service.NewAccountabilityService(out.submissions, splitwise, journal, service.AccountabilityOptions{
		CostPerQuestion: cfg.CostPerQuestion,
		MinGap:          cfg.MinGap,
		Concurrency:     cfg.Concurrency,
		CurrencyCode:    cfg.CurrencyCode,
		CategoryID:      cfg.SplitwiseCategoryID,
		DryRun:          cfg.DryRun,
	}, c.logger)

	return out, nil
}
