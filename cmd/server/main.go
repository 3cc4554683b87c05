package main

import (
	"context"
	"errors"
	"io"

	"akut-backend/config"
	"akut-backend/handlers"
	"akut-backend/logging"
	"akut-backend/metrics"
	"akut-backend/provider"
	"akut-backend/repository"
	"akut-backend/service"
	"akut-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	envErr := godotenv.Load()
	if envErr != nil {
		envErr = godotenv.Load("../../.env")
	}

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info("No .env file found, using environment variables")
	}
	for _, w := range cfg.Warnings {
		logger.Warn("Ignoring invalid configuration value", zap.String("detail", w))
	}

	ctx := context.Background()

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	logger.Info("Storage initialized", zap.String("type", string(cfg.Storage.Type)))

	// Initialize repositories
	treeRepo := repository.NewDecisionTreeRepository(store, cfg.TreePrefix)
	catalog := repository.LoadHazardCatalog(ctx, store, cfg.HazardMetaKey, logger)
	logger.Info("Hazard catalog loaded", zap.Int("hazards", len(catalog.Slugs())))

	resolver := service.NewTreeResolver(treeRepo, cfg.FallbackLanguage)

	// Initialize completion provider; the tree endpoints work without one
	var completer provider.Completer
	p, err := provider.New(ctx, cfg.LLM, logger)
	switch {
	case err == nil:
		completer = p
		if closer, ok := p.(io.Closer); ok {
			defer func() { _ = closer.Close() }()
		}
	case errors.Is(err, provider.ErrNotConfigured):
		logger.Warn("No completion provider configured, answer and chat endpoints will return 503", zap.Error(err))
	default:
		logger.Fatal("Failed to initialize completion provider", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Optional persistence for feedback and telemetry
	var pinger handlers.Pinger
	feedbackOpts := []service.FeedbackServiceOption{service.FeedbackWithLogger(logger)}
	if cfg.DatabaseURL != "" {
		db, err := initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to initialize Postgres", zap.Error(err))
		}
		defer db.Close()
		logger.Info("Postgres connection established")

		pinger = db
		feedbackOpts = append(feedbackOpts,
			service.FeedbackWithStore(repository.NewFeedbackRepository(db)),
			service.FeedbackWithTelemetryStore(repository.NewTelemetryRepository(db)),
		)
	} else {
		logger.Warn("DATABASE_URL not set, feedback and telemetry are disabled")
	}

	// Initialize services
	answerService := service.NewAnswerService(
		service.AnswerWithResolver(resolver),
		service.AnswerWithSelector(service.PrefixSelector{Limit: cfg.Answer.GroundingLimit}),
		service.AnswerWithProvider(completer),
		service.AnswerWithCatalog(catalog, cfg.Answer.IncludeSummary),
		service.AnswerWithParams(provider.Params{MaxTokens: cfg.Answer.MaxTokens, Temperature: cfg.Answer.Temperature}),
		service.AnswerWithTimeout(cfg.Answer.Timeout),
		service.AnswerWithMetrics(m),
		service.AnswerWithLogger(logger),
	)

	hazardService := service.NewHazardService(
		service.HazardWithResolver(resolver),
		service.HazardWithTreeLister(treeRepo),
		service.HazardWithCatalog(catalog),
		service.HazardWithLogger(logger),
	)

	chatService := service.NewChatService(
		service.ChatWithProvider(completer),
		service.ChatWithCatalog(catalog, cfg.FallbackLanguage),
		service.ChatWithParams(provider.Params{MaxTokens: cfg.Answer.MaxTokens, Temperature: cfg.Answer.ChatTemperature}),
		service.ChatWithTimeout(cfg.Answer.Timeout),
		service.ChatWithMetrics(m),
		service.ChatWithLogger(logger),
	)

	feedbackService := service.NewFeedbackService(feedbackOpts...)

	// Initialize handlers
	answerHandler := handlers.NewAnswerHandler(answerService, logger)
	hazardHandler := handlers.NewHazardHandler(hazardService)
	chatHandler := handlers.NewChatHandler(chatService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	healthHandler := handlers.NewHealthHandler(pinger, answerService.ProviderConfigured())

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestID(), logging.GinLogger(logger))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.APIHealth)

		// Hazard and decision tree endpoints
		api.GET("/hazards", hazardHandler.ListHazards)
		api.GET("/hazards_meta", hazardHandler.HazardsMeta)
		api.GET("/hazards/:slug", hazardHandler.GetHazardDetails)
		api.GET("/decision-tree/:slug", hazardHandler.GetDecisionTree)
		api.GET("/all-trees", hazardHandler.AllTrees)
		api.POST("/auto-navigate", hazardHandler.AutoNavigate)

		// Grounded answers
		api.POST("/grounded-answer", answerHandler.GroundedAnswer)
		api.GET("/grounded-answer-stream", answerHandler.GroundedAnswerStream)
		api.POST("/grounded-answer-stream", answerHandler.GroundedAnswerStream)

		api.POST("/chat", chatHandler.Chat)

		// Feedback and telemetry
		api.POST("/feedback", feedbackHandler.SubmitFeedback)
		api.POST("/telemetry", feedbackHandler.RecordTelemetry)
	}

	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
