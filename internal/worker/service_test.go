package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/lumenshop/storefront/internal/config"

	"github.com/hibiken/asynq"
)

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, &Consumer{}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("expected error for nil consumer")
	}
}

func TestLogTaskPassesThroughResult(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	handler := logTask(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		calls++
		return boom
	}))
	if err := handler.ProcessTask(context.Background(), asynq.NewTask("x", nil)); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected handler called once, got %d", calls)
	}
}
