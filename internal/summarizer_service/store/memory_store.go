package store

import (
	"context"
	"sync"
	"time"

	"TubeDigest/internal/models"
)

// MemoryTaskStore is an in-process implementation of TaskStore. Terminal
// tasks are evicted after the retention period by a background sweeper.
type MemoryTaskStore struct {
	mu        sync.RWMutex
	tasks     map[string]*models.Task
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewMemoryTaskStore creates a MemoryTaskStore. retention <= 0 disables
// eviction.
func NewMemoryTaskStore(retention time.Duration) *MemoryTaskStore {
	s := &MemoryTaskStore{
		tasks:     make(map[string]*models.Task),
		retention: retention,
		stop:      make(chan struct{}),
	}
	if retention > 0 {
		go s.sweep()
	}
	return s
}

// Create stores a new task. The store keeps its own copy.
func (s *MemoryTaskStore) Create(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get returns a snapshot of the task, or ErrTaskNotFound.
func (s *MemoryTaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

// Update applies mutate to the stored task under the store lock, so readers
// never observe a half-applied progress update.
func (s *MemoryTaskStore) Update(ctx context.Context, id string, mutate func(*models.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	mutate(task)
	task.LastUpdate = time.Now()
	return nil
}

// Delete removes a task. Deleting an unknown ID is not an error.
func (s *MemoryTaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

// Close stops the background sweeper.
func (s *MemoryTaskStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// sweep periodically evicts terminal tasks older than the retention period.
func (s *MemoryTaskStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.retention)
			s.mu.Lock()
			for id, task := range s.tasks {
				if task.Status.IsTerminal() && task.LastUpdate.Before(cutoff) {
					delete(s.tasks, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
