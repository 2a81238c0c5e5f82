package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSessionSweeperTicksUntilCancelled(t *testing.T) {
	var calls atomic.Int64
	sweeper := NewSessionSweeper(5*time.Millisecond, func() int {
		calls.Add(1)
		return 1
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("sweeper returned error: %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", calls.Load())
	}
}

func TestSessionSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSessionSweeper(0, nil)
	if sweeper.interval != time.Minute {
		t.Fatalf("expected default interval 1m, got %s", sweeper.interval)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("start with nil sweep returned error: %v", err)
	}
}
