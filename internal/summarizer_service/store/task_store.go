package store

import (
	"context"
	"errors"

	"TubeDigest/internal/models"
)

// ErrTaskNotFound is returned when a task ID is unknown or has expired.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore defines the interface for task state persistence. Get returns a
// snapshot the caller owns; Update applies mutate under the store's own
// synchronization so concurrent progress updates never interleave partially.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, mutate func(*models.Task)) error
	Delete(ctx context.Context, id string) error
}
