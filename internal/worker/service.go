package worker

import (
	"context"
	"errors"
	"time"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/queue"

	"github.com/hibiken/asynq"
)

// ErrQueueDisabled 队列未启用，无法启动消费端
var ErrQueueDisabled = errors.New("queue disabled")

// Service 异步任务消费端，生命周期由调用方的上下文控制
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建消费端并注册任务处理器
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, ErrQueueDisabled
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	mux.Use(logTask)
	consumer.Register(mux)
	return &Service{server: asynq.NewServer(opt, serverCfg), mux: mux}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 开始消费并阻塞到上下文结束；不使用 asynq 自带的信号处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 等待处理中的任务结束
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

func logTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, task)
		taskID, _ := asynq.GetTaskID(ctx)
		fields := []interface{}{"type", task.Type(), "task_id", taskID, "latency_ms", time.Since(start).Milliseconds()}
		if err != nil {
			logger.Ctx(ctx).Warnw("worker_task_failed", append(fields, "error", err)...)
			return err
		}
		logger.Ctx(ctx).Infow("worker_task_done", fields...)
		return nil
	})
}
