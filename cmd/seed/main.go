// cmd/seed/main.go
// 設問カタログのJSONファイルをDBに取り込むCLI。
// 既存の設問は question_id (設問文のハッシュ) をキーに上書きされる。
//
//	go run ./cmd/seed -file ./data/questions.json
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"magyar_vizsga_trainer/internal/config"
	"magyar_vizsga_trainer/internal/repository"
	"magyar_vizsga_trainer/internal/service"
)

func main() {
	var (
		filePath   = flag.String("file", "./data/questions.json", "path to the question catalog JSON")
		configPath = flag.String("config", "./configs", "path to the config directory")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.LoadConfig(*configPath); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := repository.Migrate(db); err != nil {
		slog.Error("Error running database migration", slog.Any("error", err))
		os.Exit(1)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		slog.Error("Error opening catalog file", slog.String("file", *filePath), slog.Any("error", err))
		os.Exit(1)
	}
	defer f.Close()

	questionService := service.NewQuestionService(db, repository.NewGormQuestionRepository())
	result, err := questionService.ImportCatalog(context.Background(), f)
	if err != nil {
		slog.Error("Error importing catalog", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Catalog imported",
		slog.String("file", *filePath),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)
}
