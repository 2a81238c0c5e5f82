package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/lumenshop/storefront/internal/app"
	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()
	defer func() { _ = logger.Z().Sync() }()

	printStartupBanner(cfg.App.Name, cfg.App.Version, mode)

	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			log.Fatalw("jwt_secret_weak", "hint", "configure a random secret of at least 32 characters")
		}
		log.Warnw("jwt_secret_weak", "hint", "replace the default secret before going to production")
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  log,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		log.Fatalw("app_run_failed", "error", err)
	}
}

func printStartupBanner(name, version, mode string) {
	if name == "" {
		name = "lumen-storefront"
	}
	if version == "" {
		version = "dev"
	}
	fmt.Println(ansiCyan + ansiBold + "  _                              " + ansiReset)
	fmt.Println(ansiCyan + ansiBold + " | |_   _ _ __ ___   ___ _ __    " + ansiReset)
	fmt.Println(ansiCyan + ansiBold + " | | | | | '_ ` _ \\ / _ \\ '_ \\   " + ansiReset)
	fmt.Println(ansiCyan + ansiBold + " | | |_| | | | | | |  __/ | | |  " + ansiReset)
	fmt.Println(ansiCyan + ansiBold + " |_|\\__,_|_| |_| |_|\\___|_| |_|  " + ansiReset)
	fmt.Printf(ansiDim+" %s %s (mode=%s)"+ansiReset+"\n", name, version, mode)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
