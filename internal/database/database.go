// Package database 是作品集、官网内容、预约与管理员账号的 PostgreSQL 存储。
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kidsfolio/internal/config"
)

const slowQueryThreshold = 300 * time.Millisecond

// InitDatabase 连接 PostgreSQL。SQL 日志经由默认 slog handler 输出，Debug 时打印全部语句。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	level := logger.Warn
	slogLevel := slog.LevelWarn
	if cfg.Debug {
		level = logger.Info
		slogLevel = slog.LevelDebug
	}
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slogLevel),
		logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate 建表：固定模型 + 每个内容栏目一张 ContentRow 表。
func Migrate(db *gorm.DB, contentTables []string) error {
	if err := db.AutoMigrate(&User{}, &StudentPortfolio{}, &Booking{}); err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}
	for _, table := range contentTables {
		if err := db.Table(table).AutoMigrate(&ContentRow{}); err != nil {
			return fmt.Errorf("auto migrate %s: %w", table, err)
		}
	}
	return nil
}
