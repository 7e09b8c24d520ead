package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

func failing() (interface{}, error) { return nil, errBackend }
func succeeding() (interface{}, error) { return "ok", nil }

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := New(2, 1, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(failing); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: err = %v, want backend error", i, err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open after threshold", cb.State())
	}

	// Open circuit rejects without calling through.
	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("request must not be executed while the circuit is open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(3, 1, time.Minute)

	_, _ = cb.Execute(failing)
	_, _ = cb.Execute(failing)
	_, _ = cb.Execute(succeeding)
	_, _ = cb.Execute(failing)
	_, _ = cb.Execute(failing)

	if cb.State() != Closed {
		t.Errorf("state = %v, want Closed (success resets the count)", cb.State())
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	_, _ = cb.Execute(failing)
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// Trial requests in half-open; two successes close the circuit.
	if _, err := cb.Execute(succeeding); err != nil {
		t.Fatalf("trial request rejected: %v", err)
	}
	if cb.State() != HalfOpen {
		t.Errorf("state = %v, want HalfOpen after one trial success", cb.State())
	}
	if _, err := cb.Execute(succeeding); err != nil {
		t.Fatalf("second trial rejected: %v", err)
	}
	if cb.State() != Closed {
		t.Errorf("state = %v, want Closed after recovery", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 1, 10*time.Millisecond)

	_, _ = cb.Execute(failing)
	time.Sleep(20 * time.Millisecond)

	if _, err := cb.Execute(failing); !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want backend error", err)
	}
	if cb.State() != Open {
		t.Errorf("state = %v, want Open after half-open failure", cb.State())
	}
}
