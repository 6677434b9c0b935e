package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPolicy_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Policy{MaxAttempts: 3, Delay: time.Millisecond}.Do(context.Background(),
		func(context.Context) error {
			calls++
			return nil
		}, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPolicy_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var attempts []int
	err := Policy{MaxAttempts: 5, Delay: time.Millisecond}.Do(context.Background(),
		func(context.Context) error {
			calls++
			if calls < 4 {
				return errors.New("not yet")
			}
			return nil
		},
		func(attempt int, _ error) {
			attempts = append(attempts, attempt)
		})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if len(attempts) != 3 {
		t.Errorf("failed-attempt callbacks = %d, want 3", len(attempts))
	}
}

func TestPolicy_Exhausted(t *testing.T) {
	probeErr := errors.New("locked")
	calls := 0
	err := Policy{MaxAttempts: 3, Delay: time.Millisecond}.Do(context.Background(),
		func(context.Context) error {
			calls++
			return probeErr
		}, nil)
	if !errors.Is(err, probeErr) {
		t.Errorf("Do() error = %v, want wrapped %v", err, probeErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Policy{MaxAttempts: 10, Delay: 50 * time.Millisecond}.Do(ctx,
		func(context.Context) error {
			calls++
			cancel()
			return errors.New("fail")
		}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (cancelled during first delay)", calls)
	}
}

func TestPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("fail")
	}, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
