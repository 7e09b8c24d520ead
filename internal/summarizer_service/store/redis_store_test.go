package store

import (
	"testing"
	"time"

	"TubeDigest/internal/models"
)

func TestRecordTTLOnlyForTerminalTasks(t *testing.T) {
	s := NewRedisTaskStore(nil, time.Hour)

	cases := []struct {
		status models.TaskStatus
		want   time.Duration
	}{
		{models.TaskStatusPending, 0},
		{models.TaskStatusInProgress, 0},
		{models.TaskStatusCompleted, time.Hour},
		{models.TaskStatusFailed, time.Hour},
	}
	for _, tc := range cases {
		got := s.recordTTL(&models.Task{Status: tc.status})
		if got != tc.want {
			t.Errorf("recordTTL(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
