package main

import (
	"log"

	"opname-backend/internal/config"
	"opname-backend/internal/database"
	"opname-backend/internal/logger"
	"opname-backend/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Log.Sync()

	database.Init(cfg)

	app := server.New(cfg)

	logger.Log.Info("server listening", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
