package app

import (
	"context"
	"time"

	"github.com/lumenshop/storefront/internal/logger"
)

// SessionSweeper 定期清理空闲会话
type SessionSweeper struct {
	interval time.Duration
	sweep    func() int
}

// NewSessionSweeper 创建会话清理服务
func NewSessionSweeper(interval time.Duration, sweep func() int) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{interval: interval, sweep: sweep}
}

// Name 服务名称
func (s *SessionSweeper) Name() string {
	return "session_sweeper"
}

// Start 按间隔清理，直到上下文取消
func (s *SessionSweeper) Start(ctx context.Context) error {
	if s.sweep == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := s.sweep(); removed > 0 {
				logger.Infow("session_sweeper_removed", "count", removed)
			}
		}
	}
}

// Stop 无需额外处理
func (s *SessionSweeper) Stop(context.Context) error {
	return nil
}
