package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finanalyzer/api/internal/agent"
	"github.com/finanalyzer/api/internal/client"
	"github.com/finanalyzer/api/internal/config"
	"github.com/finanalyzer/api/internal/extract"
	"github.com/finanalyzer/api/internal/handler"
	"github.com/finanalyzer/api/internal/logger"
	"github.com/finanalyzer/api/internal/middleware"
	"github.com/finanalyzer/api/internal/report"
	"github.com/finanalyzer/api/internal/service"
	"github.com/finanalyzer/api/internal/store"
	"github.com/finanalyzer/api/internal/worker"
	"github.com/finanalyzer/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Server.LogLevel, cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Ensure working directories exist before anything runs
	for _, dir := range []string{cfg.Analysis.DataDir, cfg.Analysis.OutputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			zlog.Fatal("could not create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// Job store: Postgres when reachable, in-memory fallback otherwise
	var jobStore store.JobStore
	if pg, err := store.OpenPostgres(cfg.Database.URL); err != nil {
		zlog.Warn("database not available, using in-memory job store", zap.Error(err))
		jobStore = store.NewMemoryStore()
	} else {
		jobStore = pg
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		zlog.Warn("redis not available, queued path will be degraded", zap.Error(err))
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// External clients; unconfigured clients degrade to deterministic output
	llmClient := client.NewLLMClient(&cfg.LLM)
	if !llmClient.IsConfigured() {
		zlog.Info("LLM not configured, stages run in deterministic extraction mode")
	}
	serperClient := client.NewSerperClient(&cfg.Serper)

	// Analysis components
	extractor := extract.NewPDFExtractor(zlog)
	registry := agent.NewRegistry(llmClient, serperClient, zlog)
	pipeline := agent.NewPipeline(zlog)
	writer := report.NewWriter(cfg.Analysis.OutputsDir)
	runner := service.NewRunner(jobStore, extractor, registry, pipeline, writer, zlog)

	analysisService := service.NewAnalysisService(jobStore, asynqClient, runner, cfg.Analysis.DataDir, zlog)
	analysisHandler := handler.NewAnalysisHandler(analysisService, validate, cfg.Analysis.MaxUploadMB)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    cfg.Analysis.MaxUploadMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Financial Document Analyzer API is running",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"llm":    llmClient.IsConfigured(),
				"search": serperClient.IsConfigured(),
				"redis":  redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	// Analysis routes
	analyzeLimit := rateLimiter.AnalyzeLimit(cfg.RateLimit.AnalyzePerHour)
	app.Post("/analyze", analyzeLimit, analysisHandler.Analyze)
	app.Post("/analyze-async", analyzeLimit, analysisHandler.AnalyzeAsync)
	app.Get("/analysis/:id", analysisHandler.GetAnalysis)
	app.Get("/analyses", analysisHandler.ListAnalyses)

	// Start Asynq worker server
	go startWorkerServer(cfg, jobStore, runner, zlog)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	zlog.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func startWorkerServer(cfg *config.Config, jobStore store.JobStore, runner *service.Runner, zlog *zap.Logger) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Analysis.Concurrency,
			Queues: map[string]int{
				service.QueueAnalysis: 10,
			},
		},
	)

	analysisWorker := worker.NewAnalysisWorker(
		jobStore,
		runner,
		cfg.Analysis.MaxRetries,
		time.Duration(cfg.Analysis.RetryDelaySeconds)*time.Second,
		zlog,
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeAnalyze, analysisWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		zlog.Error("asynq worker error", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(response.ErrorResponse{
		Error: response.ErrorDetail{
			Code:    response.CodeServiceError,
			Message: message,
		},
	})
}
