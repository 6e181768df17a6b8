// README: Quota service unit tests covering allowance and monthly reset.
package quota

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeCounter keeps counts in memory, keyed the same way the Redis store
// keys them.
type fakeCounter struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounter) Increment(_ context.Context, sessionID, month string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	key := sessionID + ":" + month
	f.counts[key]++
	return f.counts[key], nil
}

func TestUse_WithinAllowance(t *testing.T) {
	svc := NewService(&fakeCounter{}, 3)
	for i := 0; i < 3; i++ {
		if err := svc.Use(context.Background(), "s1"); err != nil {
			t.Fatalf("use %d: %v", i+1, err)
		}
	}
}

func TestUse_Exhausted(t *testing.T) {
	svc := NewService(&fakeCounter{}, 2)
	_ = svc.Use(context.Background(), "s1")
	_ = svc.Use(context.Background(), "s1")
	if err := svc.Use(context.Background(), "s1"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestUse_SessionsAreIndependent(t *testing.T) {
	svc := NewService(&fakeCounter{}, 1)
	if err := svc.Use(context.Background(), "s1"); err != nil {
		t.Fatalf("s1: %v", err)
	}
	if err := svc.Use(context.Background(), "s2"); err != nil {
		t.Fatalf("s2 should have its own allowance, got %v", err)
	}
}

func TestUse_MonthRollover(t *testing.T) {
	svc := NewService(&fakeCounter{}, 1)
	current := time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	if err := svc.Use(context.Background(), "s1"); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if err := svc.Use(context.Background(), "s1"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	current = current.AddDate(0, 1, 0)
	if err := svc.Use(context.Background(), "s1"); err != nil {
		t.Fatalf("after rollover: %v", err)
	}
}

func TestUse_CounterErrorPropagates(t *testing.T) {
	boom := errors.New("redis down")
	svc := NewService(&fakeCounter{err: boom}, 1)
	if err := svc.Use(context.Background(), "s1"); !errors.Is(err, boom) {
		t.Fatalf("expected counter error, got %v", err)
	}
}

func TestNewService_DefaultAllowance(t *testing.T) {
	svc := NewService(&fakeCounter{}, 0)
	if svc.allowance != DefaultAllowance {
		t.Fatalf("allowance = %d, want %d", svc.allowance, DefaultAllowance)
	}
}
