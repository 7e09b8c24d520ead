package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"TubeDigest/internal/models"

	"github.com/go-redis/redis/v8"
)

const taskKeyPrefix = "tasks:"

// RedisTaskStore persists tasks as JSON records in Redis so task state
// survives restarts and can be shared across instances. Terminal retention
// is delegated to Redis key expiry.
//
// Updates are read-modify-write cycles guarded by a per-store mutex. All
// writers for a task live in this process (the orchestrator that created
// it), so no cross-instance locking is required.
type RedisTaskStore struct {
	mu        sync.Mutex
	client    *redis.Client
	retention time.Duration
}

// NewRedisTaskStore creates a RedisTaskStore with the given retention for
// task records.
func NewRedisTaskStore(client *redis.Client, retention time.Duration) *RedisTaskStore {
	return &RedisTaskStore{client: client, retention: retention}
}

// Create stores a new task record.
func (s *RedisTaskStore) Create(ctx context.Context, task *models.Task) error {
	return s.write(ctx, task)
}

// Get returns the task, or ErrTaskNotFound if the key is missing or expired.
func (s *RedisTaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	data, err := s.client.Get(ctx, taskKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update reads the record, applies mutate and writes it back atomically with
// respect to other writers in this process.
func (s *RedisTaskStore) Update(ctx context.Context, id string, mutate func(*models.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	mutate(task)
	task.LastUpdate = time.Now()
	return s.write(ctx, task)
}

// Delete removes a task record.
func (s *RedisTaskStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, taskKeyPrefix+id).Err()
}

// write persists the record. The retention TTL only starts once the task is
// terminal; in-flight tasks are kept without expiry so a long-running item
// cannot evict its own record mid-processing.
func (s *RedisTaskStore) write(ctx context.Context, task *models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, taskKeyPrefix+task.ID, data, s.recordTTL(task)).Err()
}

// recordTTL returns 0 (no expiry) for in-flight tasks and the configured
// retention once the task has reached a terminal status.
func (s *RedisTaskStore) recordTTL(task *models.Task) time.Duration {
	if task.Status.IsTerminal() {
		return s.retention
	}
	return 0
}
