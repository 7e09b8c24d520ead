// Package poller implements the client-side control loop that tracks an
// asynchronous summarization task to completion. The polling interval grows
// with the number of checks already made, so short tasks get snappy feedback
// while long tasks stop hammering the status endpoint.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Schedule thresholds. Intervals are selected by the poll counter, then
// damped further for long-running tasks.
const (
	baseFastInterval   = 3 * time.Second
	baseMediumInterval = 5 * time.Second
	baseSlowInterval   = 8 * time.Second
	baseFloorInterval  = 12 * time.Second

	nearDoneCap   = 15 * time.Second
	longTaskCap   = 30 * time.Second
	emergencyBeat = 60 * time.Second

	maxConsecutiveFailures = 3
)

// ErrTooManyFailures is returned when the status endpoint could not be
// reached three times in a row.
var ErrTooManyFailures = errors.New("status endpoint unreachable after repeated attempts")

// Status is one observed snapshot of a task.
type Status struct {
	TaskID          string
	State           string // pending, in_progress, completed, failed
	TotalItems      int
	CompletedItems  int
	ProgressPercent int
	CurrentDetails  string
	Errors          []string
}

// Terminal reports whether no further state changes can occur.
func (s Status) Terminal() bool {
	return s.State == "completed" || s.State == "failed"
}

// NextInterval computes the delay before poll n+1, given how many checks
// have already been scheduled and the last reported progress percentage.
// The schedule is deterministic: the same (n, progress) always yields the
// same interval.
func NextInterval(n int, progressPercent int) time.Duration {
	var interval time.Duration
	switch {
	case n <= 3:
		interval = baseFastInterval
	case n <= 8:
		interval = baseMediumInterval
	case n <= 15:
		interval = baseSlowInterval
	default:
		interval = baseFloorInterval
	}

	// Almost done: stretch the interval, the next check will likely be last.
	if progressPercent >= 80 && n > 8 {
		interval = interval * 3 / 2
		if interval > nearDoneCap {
			interval = nearDoneCap
		}
	}

	// Slow-task dampening.
	if n > 20 {
		interval = interval * 6 / 5
		if interval > longTaskCap {
			interval = longTaskCap
		}
	}

	// Emergency brake for pathological long runners.
	if n > 50 {
		interval = emergencyBeat
	}

	return interval
}

// StatusClient fetches one task status snapshot.
type StatusClient interface {
	TaskStatus(ctx context.Context, taskID string) (Status, error)
}

// Clock abstracts timer scheduling so tests can drive the loop with a fake
// clock instead of real sleeps.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Session drives one task's polling loop. At most one status request is in
// flight at any time; the next check is scheduled only after the previous
// one resolves.
type Session struct {
	client   StatusClient
	clock    Clock
	onUpdate func(Status) // optional progress callback
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the real timer source, for tests.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithUpdateFunc registers a callback invoked after every successful status
// check, including the terminal one.
func WithUpdateFunc(fn func(Status)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// NewSession creates a polling session for the given status client.
func NewSession(client StatusClient, opts ...Option) *Session {
	s := &Session{client: client, clock: realClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait polls until the task reaches a terminal status and returns the final
// snapshot. A failed task is returned alongside an error carrying the task's
// first recorded failure reason. Cancelling ctx stops the loop before the
// next check fires; no request is issued after cancellation.
func (s *Session) Wait(ctx context.Context, taskID string) (Status, error) {
	n := 0
	consecutiveFailures := 0
	var last Status

	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		status, err := s.client.TaskStatus(ctx, taskID)
		if err != nil {
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutiveFailures {
				return last, fmt.Errorf("%w: %v", ErrTooManyFailures, err)
			}
		} else {
			consecutiveFailures = 0
			last = status
			if s.onUpdate != nil {
				s.onUpdate(status)
			}
			if status.Terminal() {
				if status.State == "failed" {
					return status, errors.New(failureReason(status))
				}
				return status, nil
			}
		}

		delay := NextInterval(n, last.ProgressPercent)
		n++

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-s.clock.After(delay):
		}
	}
}

func failureReason(s Status) string {
	if len(s.Errors) > 0 {
		return s.Errors[0]
	}
	return "task failed"
}
