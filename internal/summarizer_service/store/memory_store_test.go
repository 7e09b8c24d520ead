package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TubeDigest/internal/models"
)

func newTestTask(id string) *models.Task {
	now := time.Now()
	return &models.Task{
		ID:         id,
		Status:     models.TaskStatusPending,
		StartTime:  now,
		LastUpdate: now,
	}
}

func TestMemoryStoreCreateGet(t *testing.T) {
	s := NewMemoryTaskStore(0)
	ctx := context.Background()

	if err := s.Create(ctx, newTestTask("t1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	task, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if task.ID != "t1" || task.Status != models.TaskStatusPending {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := NewMemoryTaskStore(0)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	s := NewMemoryTaskStore(0)
	ctx := context.Background()
	_ = s.Create(ctx, newTestTask("t1"))

	snap, _ := s.Get(ctx, "t1")
	snap.Status = models.TaskStatusFailed
	snap.Errors = append(snap.Errors, models.TaskError{Item: "x", Error: "boom"})

	// Mutating the snapshot must not leak into the store.
	fresh, _ := s.Get(ctx, "t1")
	if fresh.Status != models.TaskStatusPending {
		t.Errorf("snapshot mutation leaked into store: %v", fresh.Status)
	}
	if len(fresh.Errors) != 0 {
		t.Errorf("snapshot error mutation leaked into store")
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryTaskStore(0)
	ctx := context.Background()
	_ = s.Create(ctx, newTestTask("t1"))

	err := s.Update(ctx, "t1", func(task *models.Task) {
		task.Status = models.TaskStatusInProgress
		task.TotalItems = 5
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	task, _ := s.Get(ctx, "t1")
	if task.Status != models.TaskStatusInProgress || task.TotalItems != 5 {
		t.Errorf("update not applied: %+v", task)
	}

	if err := s.Update(ctx, "missing", func(task *models.Task) {}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for unknown ID, got %v", err)
	}
}

func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	s := NewMemoryTaskStore(0)
	ctx := context.Background()
	task := newTestTask("t1")
	task.TotalItems = 100
	_ = s.Create(ctx, task)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "t1", func(task *models.Task) {
				task.CompletedItems++
			})
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, "t1")
	if got.CompletedItems != 100 {
		t.Errorf("lost updates: completed_items = %d, want 100", got.CompletedItems)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryTaskStore(0)
	ctx := context.Background()
	_ = s.Create(ctx, newTestTask("t1"))

	if err := s.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "t1"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected task to be gone, got %v", err)
	}
	// Deleting again is not an error.
	if err := s.Delete(ctx, "t1"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}
