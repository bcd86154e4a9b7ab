package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

// SnapshotRepository stores the latest stats report for the API.
type SnapshotRepository interface {
	Save(ctx context.Context, snap model.ReportSnapshot) error
	Latest(ctx context.Context) (*model.ReportSnapshot, error)
}

type redisSnapshotRepository struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisSnapshotRepository(rdb *redis.Client, key string, ttl time.Duration) SnapshotRepository {
	return &redisSnapshotRepository{rdb: rdb, key: key, ttl: ttl}
}

func (r *redisSnapshotRepository) Save(ctx context.Context, snap model.ReportSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redisSnapshotRepository.Save: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redisSnapshotRepository.Save: %w", err)
	}
	return nil
}

func (r *redisSnapshotRepository) Latest(ctx context.Context) (*model.ReportSnapshot, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisSnapshotRepository.Latest: %w", err)
	}
	var snap model.ReportSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("redisSnapshotRepository.Latest: %w", err)
	}
	return &snap, nil
}
