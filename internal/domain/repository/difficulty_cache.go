package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"lc_accountability/internal/domain/model"
)

// DifficultyCache remembers the tier of a problem. A problem's tier never
// changes, so entries are kept for the life of the process (or the TTL).
type DifficultyCache interface {
	Get(ctx context.Context, problemID string) (model.ProblemDifficulty, bool, error)
	Set(ctx context.Context, problemID string, d model.ProblemDifficulty) error
}

type memoryDifficultyCache struct {
	mu      sync.RWMutex
	entries map[string]model.ProblemDifficulty
}

func NewMemoryDifficultyCache() DifficultyCache {
	return &memoryDifficultyCache{entries: make(map[string]model.ProblemDifficulty)}
}

func (c *memoryDifficultyCache) Get(_ context.Context, problemID string) (model.ProblemDifficulty, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[problemID]
	return d, ok, nil
}

func (c *memoryDifficultyCache) Set(_ context.Context, problemID string, d model.ProblemDifficulty) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[problemID] = d
	return nil
}

type redisDifficultyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDifficultyCache shares resolved tiers between runs and processes.
func NewRedisDifficultyCache(rdb *redis.Client, ttl time.Duration) DifficultyCache {
	return &redisDifficultyCache{rdb: rdb, ttl: ttl}
}

func difficultyKey(problemID string) string {
	return "difficulty:" + problemID
}

func (c *redisDifficultyCache) Get(ctx context.Context, problemID string) (model.ProblemDifficulty, bool, error) {
	val, err := c.rdb.Get(ctx, difficultyKey(problemID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisDifficultyCache.Get: %w", err)
	}
	d, ok := model.ParseDifficulty(val)
	if !ok {
		// Unrecognised values are treated as a miss and overwritten later.
		return "", false, nil
	}
	return d, true, nil
}

func (c *redisDifficultyCache) Set(ctx context.Context, problemID string, d model.ProblemDifficulty) error {
	if err := c.rdb.Set(ctx, difficultyKey(problemID), string(d), c.ttl).Err(); err != nil {
		return fmt.Errorf("redisDifficultyCache.Set: %w", err)
	}
	return nil
}

type tieredDifficultyCache struct {
	near DifficultyCache
	far  DifficultyCache
}

// NewTieredDifficultyCache checks near first, then far, filling near on a far
// hit. Writes go to both.
func NewTieredDifficultyCache(near, far DifficultyCache) DifficultyCache {
	return &tieredDifficultyCache{near: near, far: far}
}

func (c *tieredDifficultyCache) Get(ctx context.Context, problemID string) (model.ProblemDifficulty, bool, error) {
	if d, ok, err := c.near.Get(ctx, problemID); err == nil && ok {
		return d, true, nil
	}
	d, ok, err := c.far.Get(ctx, problemID)
	if err != nil || !ok {
		return "", false, err
	}
	_ = c.near.Set(ctx, problemID, d)
	return d, true, nil
}

func (c *tieredDifficultyCache) Set(ctx context.Context, problemID string, d model.ProblemDifficulty) error {
	if err := c.near.Set(ctx, problemID, d); err != nil {
		return err
	}
	return c.far.Set(ctx, problemID, d)
}
