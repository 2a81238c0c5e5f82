package app

import (
	"context"
	"errors"

	"github.com/lumenshop/storefront/internal/telemetry"
)

// telemetryService 在退出时刷新指标与链路数据
type telemetryService struct {
	shutdowns []telemetry.ShutdownFunc
}

func (s *telemetryService) Name() string {
	return "telemetry"
}

func (s *telemetryService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *telemetryService) Stop(ctx context.Context) error {
	var errs []error
	for _, shutdown := range s.shutdowns {
		if shutdown == nil {
			continue
		}
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
