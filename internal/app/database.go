package app

import (
	"context"
	"fmt"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/migrate"
	"github.com/lumenshop/storefront/internal/models"

	"gorm.io/gorm"
)

// OpenDatabase 连接数据库并建表；postgres 开启 sql_migrations 时执行内嵌迁移
func OpenDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	pool := models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Server.Mode, pool); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	driver := models.NormalizeDriver(cfg.Database.Driver)
	if driver == "postgres" && cfg.Database.SQLMigrations {
		if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
			return nil, fmt.Errorf("sql migrations: %w", err)
		}
		logger.Infow("database_sql_migrations_applied", "driver", driver)
		return models.DB, nil
	}
	if err := models.AutoMigrate(models.DB); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	logger.Infow("database_auto_migrated", "driver", driver)
	return models.DB, nil
}

// closeDatabase 关闭底层连接池
func closeDatabase(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warnw("database_close_failed", "error", err)
	}
}
