// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"magyar_vizsga_trainer/internal/config"
	"magyar_vizsga_trainer/internal/handlers"
	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/repository"
	"magyar_vizsga_trainer/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定読み込み前の一時ロガー
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := buildLogger(tempLogger)
	slog.SetDefault(logger)
	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	if err := repository.Migrate(db); err != nil {
		slog.Error("Error running database migration", slog.Any("error", err))
		os.Exit(1)
	}

	// Dependency Injection
	userRepo := repository.NewGormUserRepository()
	questionRepo := repository.NewGormQuestionRepository()
	progressRepo := repository.NewGormProgressRepository()
	srsRepo := repository.NewGormSRSRepository()
	sessionRepo := repository.NewGormSessionRepository()
	vocabRepo := repository.NewGormVocabRepository()

	authService := service.NewAuthService(db, userRepo, &config.Cfg)
	questionService := service.NewQuestionService(db, questionRepo)
	sessionService := service.NewSessionService(db, questionRepo, progressRepo, srsRepo, sessionRepo, vocabRepo, &config.Cfg)
	statsService := service.NewStatsService(db, questionRepo, progressRepo, srsRepo, sessionRepo, vocabRepo, &config.Cfg)

	authHandler := handlers.NewAuthHandler(authService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
	})
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/users", authHandler.Register)
		r.Post("/login", authHandler.Login)

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(&config.Cfg))

			r.Get("/me", authHandler.Me)

			r.Route("/questions", func(r chi.Router) {
				r.Get("/", questionHandler.GetQuestions)
				r.Post("/", questionHandler.PostQuestion)
				r.Post("/import", questionHandler.ImportQuestions)
				r.Get("/{question_id}", questionHandler.GetQuestion)
				r.Put("/{question_id}", questionHandler.PutQuestion)
				r.Delete("/{question_id}", questionHandler.DeleteQuestion)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.PostSession)
				r.Get("/{session_id}", sessionHandler.GetSession)
				r.Post("/{session_id}/answer", sessionHandler.PostAnswer)
				r.Post("/{session_id}/hint", sessionHandler.PostHint)
				r.Post("/{session_id}/reveal", sessionHandler.PostReveal)
				r.Post("/{session_id}/rate", sessionHandler.PostRate)
				r.Post("/{session_id}/choice", sessionHandler.PostChoice)
				r.Post("/{session_id}/advance", sessionHandler.PostAdvance)
				r.Post("/{session_id}/abandon", sessionHandler.PostAbandon)
				r.Get("/{session_id}/result", sessionHandler.GetResult)
			})

			r.Get("/stats", statsHandler.GetStats)
			r.Get("/reviews/forecast", statsHandler.GetForecast)
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := sqlDB.PingContext(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}

// buildLogger は設定に基づいてslogハンドラを組み立てます。
// 開発環境(APP_ENV=dev)では tint、それ以外ではJSONで出力する。
func buildLogger(tempLogger *slog.Logger) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		tempLogger.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	return slog.New(handler)
}
