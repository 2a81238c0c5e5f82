package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/provider"
	"github.com/lumenshop/storefront/internal/router"
	"github.com/lumenshop/storefront/internal/telemetry"
	"github.com/lumenshop/storefront/internal/worker"

	"gorm.io/gorm"
)

const defaultServiceName = "lumen-storefront"

// BuildRunner 连接数据库、组装容器并按模式构建服务
func BuildRunner(ctx context.Context, cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !IsValidMode(mode) {
		return nil, fmt.Errorf("unsupported mode: %s", mode)
	}

	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner, err := buildRunnerWithDB(ctx, cfg, db, mode)
	if err != nil {
		closeDatabase(db)
		return nil, err
	}
	runner.OnClose(func() { closeDatabase(db) })
	return runner, nil
}

func buildRunnerWithDB(ctx context.Context, cfg *config.Config, db *gorm.DB, mode string) (*Runner, error) {
	serviceName := cfg.App.Name
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	telemetrySvc := &telemetryService{}
	var metricsHandler http.Handler
	if cfg.Telemetry.MetricsEnabled {
		handler, shutdown, err := telemetry.InitMeterProvider(serviceName, cfg.App.Version)
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		metricsHandler = handler
		telemetrySvc.shutdowns = append(telemetrySvc.shutdowns, shutdown)
	}
	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry, serviceName, cfg.App.Version)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	telemetrySvc.shutdowns = append(telemetrySvc.shutdowns, shutdownTracer)

	container, err := provider.NewContainer(cfg, db)
	if err != nil {
		return nil, err
	}

	services := []Service{telemetrySvc}
	if runsAPI(mode) {
		engine := router.SetupRouter(cfg, container, metricsHandler)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services,
			NewHTTPService(addr, engine),
			NewSessionSweeper(cfg.Session.SweepInterval(), container.IdentityService.Sessions().Sweep),
		)
	}
	if runsWorker(mode) {
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
		switch {
		case err == nil:
			services = append(services, workerService)
		case mode == ModeWorker:
			container.Close()
			return nil, err
		default:
			logger.Warnw("app_worker_skipped", "error", err)
		}
	}

	runner := NewRunner(services...)
	runner.OnClose(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(context.Background(), opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode, "services", len(runner.Services()))
	return RunWithOptions(runner, opts)
}
