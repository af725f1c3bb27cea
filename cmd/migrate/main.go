package main

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sprouting-academy/internal/config"
	"sprouting-academy/internal/db"
	"sprouting-academy/internal/migrate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("app", "migrate"), zap.String("driver", cfg.GuestCartDriver))

	ctx := context.Background()
	if cfg.GuestCartDriver == config.DriverSQLite {
		if err := migrate.ApplySQLite(ctx, cfg.SQLitePath, logger); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied", zap.String("path", cfg.SQLitePath))
		return
	}

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	logger.Info("migrations applied")
}
