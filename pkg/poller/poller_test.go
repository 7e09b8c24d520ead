package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNextIntervalSchedule(t *testing.T) {
	tests := []struct {
		n        int
		progress int
		want     time.Duration
	}{
		{0, 0, 3 * time.Second},
		{1, 0, 3 * time.Second},
		{3, 0, 3 * time.Second},
		{4, 0, 5 * time.Second},
		{8, 0, 5 * time.Second},
		{9, 0, 8 * time.Second},
		{10, 50, 8 * time.Second}, // below 80% progress, no stretch
		{15, 0, 8 * time.Second},
		{16, 0, 12 * time.Second},
		{9, 80, 12 * time.Second},             // 8s * 1.5
		{16, 90, 15 * time.Second},            // 12s * 1.5 = 18s, capped at 15s
		{21, 0, 14400 * time.Millisecond},     // 12s * 1.2
		{30, 0, 14400 * time.Millisecond},
		{51, 0, 60 * time.Second},  // emergency brake
		{60, 95, 60 * time.Second}, // brake wins over every other rule
	}
	for _, tt := range tests {
		if got := NextInterval(tt.n, tt.progress); got != tt.want {
			t.Errorf("NextInterval(%d, %d) = %v, want %v", tt.n, tt.progress, got, tt.want)
		}
	}
}

func TestNextIntervalDeterministic(t *testing.T) {
	for n := 0; n <= 60; n++ {
		for _, p := range []int{0, 50, 80, 100} {
			a := NextInterval(n, p)
			b := NextInterval(n, p)
			if a != b {
				t.Fatalf("NextInterval(%d, %d) not deterministic: %v vs %v", n, p, a, b)
			}
		}
	}
}

// instantClock fires timers immediately and records requested delays.
type instantClock struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// blockedClock returns timers that never fire.
type blockedClock struct{}

func (blockedClock) After(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

// scriptClient plays back a fixed sequence of status responses.
type scriptClient struct {
	mu     sync.Mutex
	calls  int
	script []func() (Status, error)
}

func (c *scriptClient) TaskStatus(ctx context.Context, taskID string) (Status, error) {
	c.mu.Lock()
	idx := c.calls
	c.calls++
	c.mu.Unlock()
	if idx >= len(c.script) {
		return Status{}, errors.New("unexpected extra status check")
	}
	return c.script[idx]()
}

func (c *scriptClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func inProgress(completed, total int) func() (Status, error) {
	return func() (Status, error) {
		pct := 0
		if total > 0 {
			pct = completed * 100 / total
		}
		return Status{State: "in_progress", TotalItems: total, CompletedItems: completed, ProgressPercent: pct}, nil
	}
}

func terminal(state string, errs ...string) func() (Status, error) {
	return func() (Status, error) {
		return Status{State: state, Errors: errs}, nil
	}
}

func transportError() func() (Status, error) {
	return func() (Status, error) {
		return Status{}, errors.New("connection refused")
	}
}

func TestWaitStopsOnCompleted(t *testing.T) {
	client := &scriptClient{script: []func() (Status, error){
		inProgress(0, 2),
		inProgress(1, 2),
		terminal("completed"),
	}}
	clock := &instantClock{}

	terminalUpdates := 0
	session := NewSession(client, WithClock(clock), WithUpdateFunc(func(s Status) {
		if s.Terminal() {
			terminalUpdates++
		}
	}))

	final, err := session.Wait(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if final.State != "completed" {
		t.Errorf("final state = %s, want completed", final.State)
	}
	if client.callCount() != 3 {
		t.Errorf("status checks = %d, want exactly 3 (no check after terminal)", client.callCount())
	}
	if terminalUpdates != 1 {
		t.Errorf("terminal update delivered %d times, want exactly once", terminalUpdates)
	}
	// The first two waits follow the fast end of the schedule.
	if len(clock.delays) != 2 || clock.delays[0] != 3*time.Second || clock.delays[1] != 3*time.Second {
		t.Errorf("scheduled delays = %v, want [3s 3s]", clock.delays)
	}
}

func TestWaitFailedTaskSurfacesFirstError(t *testing.T) {
	client := &scriptClient{script: []func() (Status, error){
		terminal("failed", "v1: no captions", "v2: boom"),
	}}
	session := NewSession(client, WithClock(&instantClock{}))

	final, err := session.Wait(context.Background(), "t1")
	if err == nil || err.Error() != "v1: no captions" {
		t.Errorf("err = %v, want first recorded error", err)
	}
	if final.State != "failed" {
		t.Errorf("final state = %s, want failed", final.State)
	}
	if client.callCount() != 1 {
		t.Errorf("status checks = %d, want 1", client.callCount())
	}
}

func TestWaitFailedTaskWithoutErrors(t *testing.T) {
	client := &scriptClient{script: []func() (Status, error){
		terminal("failed"),
	}}
	session := NewSession(client, WithClock(&instantClock{}))

	_, err := session.Wait(context.Background(), "t1")
	if err == nil || err.Error() != "task failed" {
		t.Errorf("err = %v, want generic failure message", err)
	}
}

func TestConsecutiveTransportFailuresStopPolling(t *testing.T) {
	client := &scriptClient{script: []func() (Status, error){
		transportError(),
		transportError(),
		transportError(),
	}}
	session := NewSession(client, WithClock(&instantClock{}))

	_, err := session.Wait(context.Background(), "t1")
	if !errors.Is(err, ErrTooManyFailures) {
		t.Fatalf("err = %v, want ErrTooManyFailures", err)
	}
	if client.callCount() != 3 {
		t.Errorf("status checks = %d, want 3 (stop at the threshold)", client.callCount())
	}
}

func TestSuccessResetsFailureCounter(t *testing.T) {
	client := &scriptClient{script: []func() (Status, error){
		transportError(),
		transportError(),
		inProgress(0, 1), // success resets the counter
		transportError(),
		transportError(),
		terminal("completed"),
	}}
	session := NewSession(client, WithClock(&instantClock{}))

	final, err := session.Wait(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if final.State != "completed" {
		t.Errorf("final state = %s, want completed", final.State)
	}
	if client.callCount() != 6 {
		t.Errorf("status checks = %d, want 6", client.callCount())
	}
}

func TestCancellationPreventsFurtherChecks(t *testing.T) {
	client := &scriptClient{script: []func() (Status, error){
		inProgress(0, 1),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	session := NewSession(client, WithClock(blockedClock{}))

	done := make(chan error, 1)
	go func() {
		_, err := session.Wait(ctx, "t1")
		done <- err
	}()

	// Give the loop time to issue its immediate first check, then cancel
	// while it is blocked on the (never-firing) timer.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}

	if client.callCount() != 1 {
		t.Errorf("status checks after cancel = %d, want 1 (no check may fire after cancellation)", client.callCount())
	}
}
