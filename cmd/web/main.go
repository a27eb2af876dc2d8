package main

import (
	"context"
	"log"
	"os"

	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"kavella.com/app/internal/config"
	apphttp "kavella.com/app/internal/http"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	provider, err := payments.NewProvider(cfg)
	if err != nil {
		log.Fatalf("payment provider: %v", err)
	}

	store, err := storage.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	logger.Info("storage ready", "driver", store.Driver)

	r := apphttp.NewRouter(apphttp.Deps{
		Logger:   logger,
		DB:       db,
		Config:   cfg,
		Provider: provider,
		Storage:  store.Storage,
	})

	logger.Info("listening", "addr", cfg.HTTPAddr, "provider", provider.Name())
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
