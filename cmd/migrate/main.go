package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/migrate"
	"github.com/lumenshop/storefront/internal/models"
)

func main() {
	var steps int
	var timeout time.Duration
	flag.IntVar(&steps, "steps", 0, "down 回退的版本数，0 表示全部")
	flag.DurationVar(&timeout, "timeout", time.Minute, "执行超时")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up|down|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if models.NormalizeDriver(cfg.Database.Driver) != "postgres" {
		log.Fatalw("migrate_unsupported_driver", "driver", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	command := flag.Arg(0)
	switch command {
	case "up":
		if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
			log.Fatalw("migrate_up_failed", "error", err)
		}
	case "down":
		if err := migrate.Down(ctx, cfg.Database.DSN, steps); err != nil {
			log.Fatalw("migrate_down_failed", "error", err)
		}
	case "version":
	default:
		flag.Usage()
		os.Exit(2)
	}

	info, err := migrate.Version(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatalw("migrate_version_failed", "error", err)
	}
	log.Infow("migrate_done", "command", command, "version", info.Version, "dirty", info.Dirty, "applied", info.Applied)
}
