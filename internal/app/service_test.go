package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeService struct {
	name    string
	startFn func(ctx context.Context) error
	stopped atomic.Bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startFn != nil {
		return s.startFn(ctx)
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllWhenContextCancelled(t *testing.T) {
	first := &fakeService{name: "first"}
	second := &fakeService{name: "second"}
	runner := NewRunner(first, second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !first.stopped.Load() || !second.stopped.Load() {
		t.Fatalf("expected both services stopped")
	}
}

func TestRunnerPropagatesServiceError(t *testing.T) {
	boom := errors.New("boom")
	failing := &fakeService{name: "failing", startFn: func(context.Context) error { return boom }}
	idle := &fakeService{name: "idle"}
	runner := NewRunner(failing, idle)

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !idle.stopped.Load() {
		t.Fatalf("expected idle service stopped after failure")
	}
}

func TestRunnerStopsWhenServiceExitsCleanly(t *testing.T) {
	quick := &fakeService{name: "quick", startFn: func(context.Context) error { return nil }}
	idle := &fakeService{name: "idle"}
	runner := NewRunner(quick, idle)

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background(), time.Second, nil) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop after clean exit")
	}
	if !idle.stopped.Load() {
		t.Fatalf("expected idle service stopped")
	}
}

func TestRunnerClosersRunInReverse(t *testing.T) {
	runner := NewRunner(&fakeService{name: "quick", startFn: func(context.Context) error { return nil }})
	var order []string
	runner.OnClose(func() { order = append(order, "db") })
	runner.OnClose(func() { order = append(order, "container") })

	if err := runner.Run(context.Background(), time.Second, nil); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if len(order) != 2 || order[0] != "container" || order[1] != "db" {
		t.Fatalf("unexpected close order: %v", order)
	}
}

func TestRunnerRejectsEmptyAndNil(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
	if err := NewRunner(nil).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}
