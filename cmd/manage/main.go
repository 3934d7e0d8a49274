package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/app"
	"github.com/Freeeeeet/schedule_registrations/internal/config"
	"github.com/Freeeeeet/schedule_registrations/internal/repository"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.LoadDB()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.AppName)
	defer logger.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer migrator.Close()

	// Токены manage не выпускает, секрет не нужен
	auth := service.NewAuthService(repository.NewAdminRepository(pool), nil, "", time.Hour, logger)

	cli := &commandLine{migrator: migrator, admins: auth, out: os.Stdout}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			log.Printf("error: %s", err)
		}
		pool.Close()
		os.Exit(1)
	}
}
