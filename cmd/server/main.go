package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"swipe/interview/internal/aggregate"
	"swipe/interview/internal/broadcast"
	"swipe/interview/internal/clock"
	"swipe/interview/internal/config"
	"swipe/interview/internal/handlers"
	"swipe/interview/internal/interview"
	"swipe/interview/internal/jobs"
	"swipe/interview/internal/llm"
	_ "swipe/interview/internal/llm/gemini"
	"swipe/interview/internal/metrics"
	"swipe/interview/internal/middleware"
	"swipe/interview/internal/prompts"
	"swipe/interview/internal/questions"
	"swipe/interview/internal/repositories"
	"swipe/interview/internal/routers"
	"swipe/interview/internal/scoring"
	"swipe/interview/internal/session"
	"swipe/interview/internal/store"
	"swipe/interview/internal/timer"
)

type routeHandlers struct {
	health    *handlers.HealthHandler
	interview *handlers.InterviewHandler
	candidate *handlers.CandidateHandler
	stream    *handlers.StreamHandler
}

func registerRoutes(router *chi.Mux, h routeHandlers, auth func(http.Handler) http.Handler) {
	routers.HealthRoutes(router, h.health)
	routers.InterviewRoutes(router, h.interview, h.stream)
	routers.CandidateRoutes(router, h.candidate, h.stream, auth)
}

// openDatabase connects with the configured driver and migrates the schema.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.PostgresDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repositories.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func newProvider(cfg *config.Config, logger *zap.Logger) llm.Provider {
	if cfg.Provider == "none" {
		logger.Info("AI provider disabled, using local scoring and summaries")
		return nil
	}
	provider, err := llm.New(cfg.Provider)
	if err != nil {
		logger.Warn("Failed to initialize AI provider, falling back to local scoring", zap.Error(err))
		return nil
	}
	return provider
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("db_driver", cfg.DBDriver),
		zap.Bool("interviewer_auth", cfg.JWTSecret != ""))

	promptManager, err := prompts.Load()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}
	provider := newProvider(cfg, logger)

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access database handle", zap.Error(err))
	}
	candidateRepo := &repositories.CandidateRepository{DB: db}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	kv := store.NewRedisKV(rdb, cfg.KeyPrefix, cfg.SessionTTL)
	if err := kv.Ping(context.Background()); err != nil {
		logger.Warn("Redis unreachable at startup, sessions will not persist until it recovers", zap.Error(err))
	}
	sessionStore := store.NewSessionStore(kv, logger)
	bus := broadcast.NewBus(rdb, cfg.SyncChannel, logger)

	var generator questions.Generator = questions.NewLLMGenerator(provider, promptManager, cfg.AITimeout, logger)
	var evaluators []scoring.Evaluator
	if provider != nil {
		evaluators = append(evaluators, scoring.NewRemoteEvaluator(provider, promptManager, cfg.AITimeout))
	}

	svc := interview.NewService(interview.Deps{
		Candidates: candidateRepo,
		Sessions:   sessionStore,
		Generator:  generator,
		Scorer:     scoring.NewEngine(logger, evaluators...),
		Summarizer: aggregate.NewAggregator(provider, promptManager, cfg.AITimeout, logger),
		Bus:        bus,
		Clock:      clock.Real(),
		Logger:     logger,
		Options:    session.Options{FreezeTimerOnPause: cfg.FreezeTimerOnPause},
	})
	if err := svc.Load(context.Background()); err != nil {
		logger.Fatal("Failed to restore interview state", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go bus.Run(ctx, svc.ApplyRemote)

	watcher := timer.NewWatcher(svc, clock.Real(), cfg.TimerInterval, func(sessionID string, index int) {
		// scoring a timed-out draft may call the AI provider
		go svc.HandleTimeUp(ctx, sessionID, index)
	}, logger)
	watcher.SetOnTick(svc.PublishTick)
	go watcher.Run(ctx)

	exporterJob := jobs.NewResultsExporterJob(candidateRepo, &jobs.ExporterConfig{
		Schedule:      cfg.ExportSchedule,
		ExportDir:     cfg.ExportDir,
		ExportEnabled: cfg.ExportEnabled,
		BatchSize:     cfg.ExportBatchSize,
	}, logger)
	if err := exporterJob.Start(); err != nil {
		logger.Error("Failed to start results exporter job", zap.Error(err))
	}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, metrics.Middleware)

	registerRoutes(router, routeHandlers{
		health:    handlers.NewHealthHandler(handlers.PingFunc(sqlDB.PingContext), kv, provider, promptManager),
		interview: handlers.NewInterviewHandler(svc, logger),
		candidate: handlers.NewCandidateHandler(svc, logger),
		stream:    handlers.NewStreamHandler(bus, svc, logger),
	}, middleware.RequireInterviewer(cfg.JWTSecret, logger))

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket streams are long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")
	stop()
	exporterJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}

	logger.Info("Interview service exited")
}
