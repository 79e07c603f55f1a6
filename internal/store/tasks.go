package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smartval/internal/model"

	"github.com/go-redis/redis/v8"
)

// ErrTaskNotFound means the task id is unknown or the record expired.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore persists background-job state for polling clients.
type TaskStore interface {
	Put(ctx context.Context, rec *model.TaskRecord) error
	Get(ctx context.Context, id string) (*model.TaskRecord, error)
}

// RedisTaskStore keeps task records in Redis with a TTL, so finished results
// age out on their own.
type RedisTaskStore struct {
	c   *redis.Client
	ttl time.Duration
}

// NewRedisTaskStore creates a store with the given record TTL.
func NewRedisTaskStore(c *redis.Client, ttl time.Duration) *RedisTaskStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisTaskStore{c: c, ttl: ttl}
}

func taskKey(id string) string {
	return "smartval:task:" + id
}

// Put writes the full record, refreshing the TTL.
func (s *RedisTaskStore) Put(ctx context.Context, rec *model.TaskRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", rec.ID, err)
	}
	if err := s.c.Set(ctx, taskKey(rec.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store task %s: %w", rec.ID, err)
	}
	return nil
}

// Get fetches a record by id.
func (s *RedisTaskStore) Get(ctx context.Context, id string) (*model.TaskRecord, error) {
	data, err := s.c.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("fetch task %s: %w", id, err)
	}
	var rec model.TaskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &rec, nil
}

// interface guard
var _ TaskStore = (*RedisTaskStore)(nil)
