package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"resource-system/internal/repositories"
	"resource-system/pkg/config"
	"resource-system/pkg/database/postgresql"
	applogger "resource-system/pkg/logger"
	"resource-system/seeders"
)

func main() {
	runMigrate := flag.Bool("migrate", false, "apply database migrations")
	runAdmin := flag.Bool("admin", false, "create the system administrator from SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD")
	runAll := flag.Bool("all", false, "run everything (-migrate -admin)")
	flag.Parse()

	if !*runMigrate && !*runAdmin && !*runAll {
		log.Println("no seeder selected, available flags:")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := applogger.NewLogger(cfg.Logger.Level, cfg.Server.IsDevelopment())
	defer func() { _ = logger.Sync() }()

	if *runAll || *runMigrate {
		if err := postgresql.UpMigrations(cfg.Postgres.DSN); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	if *runAll || *runAdmin {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, logger)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()

		users := repositories.NewUserRepository(pool, logger)
		if err := seeders.SeedAdmin(ctx, users, cfg.Seeder, logger); err != nil {
			logger.Fatal("admin seed failed", zap.Error(err))
		}
	}
}
