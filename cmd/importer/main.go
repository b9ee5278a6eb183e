package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"opname-backend/internal/catalog"
	"opname-backend/internal/config"
	"opname-backend/internal/database"
	"opname-backend/internal/logger"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "path to the .xlsx inventory sheet")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -file items.xlsx")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := logger.Init(cfg); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Log.Sync()

	database.Init(cfg)

	f, err := os.Open(*file)
	if err != nil {
		logger.Log.Fatal("could not open file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	result, err := catalog.ImportWorkbook(database.DB, f)
	if err != nil {
		logger.Log.Fatal("import failed", zap.Error(err))
	}

	for _, re := range result.Errors {
		logger.Log.Warn("row skipped", zap.Int("row", re.Row), zap.String("reason", re.Message))
	}
	logger.Log.Info("import finished",
		zap.String("file", *file),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
}
