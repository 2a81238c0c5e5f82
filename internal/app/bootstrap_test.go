package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/config"

	"github.com/gin-gonic/gin"
)

var appDBSeq atomic.Int64

func newBootstrapConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.Mode = "debug"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = fmt.Sprintf("file:app_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), appDBSeq.Add(1))
	cfg.Database.Pool.MaxOpenConns = 1
	cfg.Database.Pool.MaxIdleConns = 1
	cfg.JWT = config.JWTConfig{SecretKey: "bootstrap-test-secret", ExpireHours: 1}
	cfg.Security.PasswordPolicy.MinLength = 6
	return cfg
}

func serviceNames(runner *Runner) []string {
	names := make([]string, 0, len(runner.Services()))
	for _, svc := range runner.Services() {
		names = append(names, svc.Name())
	}
	return names
}

func TestBuildRunnerModes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := newBootstrapConfig()
	db, err := OpenDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open database failed: %v", err)
	}
	t.Cleanup(func() { closeDatabase(db) })

	for _, mode := range []string{ModeAPI, ModeAll} {
		runner, err := buildRunnerWithDB(context.Background(), cfg, db, mode)
		if err != nil {
			t.Fatalf("build %s runner failed: %v", mode, err)
		}
		names := serviceNames(runner)
		want := []string{"telemetry", "http", "session_sweeper"}
		if len(names) != len(want) {
			t.Fatalf("mode %s services want %v got %v", mode, want, names)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Fatalf("mode %s services want %v got %v", mode, want, names)
			}
		}
		runner.close()
	}

	// 队列未启用时独立 worker 模式无法启动
	if _, err := buildRunnerWithDB(context.Background(), cfg, db, ModeWorker); err == nil {
		t.Fatalf("expected worker mode to fail without queue")
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(context.Background(), newBootstrapConfig(), "batch"); err == nil {
		t.Fatalf("expected unknown mode error")
	}
	if _, err := BuildRunner(context.Background(), nil, ModeAll); err == nil {
		t.Fatalf("expected nil config error")
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts := normalizeOptions(Options{Mode: " API "})
	if opts.Mode != ModeAPI {
		t.Fatalf("expected mode api, got %q", opts.Mode)
	}
	if opts.ShutdownTimeout != 10*time.Second || opts.Logger == nil {
		t.Fatalf("expected defaults filled, got %+v", opts)
	}
}
