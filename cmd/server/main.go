package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BNTiyan/ai-checker/internal/api"
	"github.com/BNTiyan/ai-checker/internal/cache"
	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/detector/providers"
	"github.com/BNTiyan/ai-checker/internal/pipeline"
	"github.com/BNTiyan/ai-checker/internal/plagiarism"
	"github.com/BNTiyan/ai-checker/internal/queue"
	"github.com/BNTiyan/ai-checker/internal/search"
	"github.com/BNTiyan/ai-checker/pkg/logging"
	"github.com/BNTiyan/ai-checker/pkg/tracing"
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("ai-checker service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("ai-checker")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
	}

	portDefault := getEnv("PORT", "8080")
	dbPathDefault := getEnv("DB_PATH", "")
	redisAddrDefault := getEnv("REDIS_ADDR", "")
	useOllamaDefault := getEnvBool("USE_OLLAMA", false)

	var (
		port        = flag.String("port", portDefault, "Server port (env: PORT)")
		dbPath      = flag.String("db", dbPathDefault, "Report store database path; empty keeps reports in memory (env: DB_PATH)")
		redisAddr   = flag.String("redis", redisAddrDefault, "Redis address for background analysis; empty disables the queue (env: REDIS_ADDR)")
		useOllama   = flag.Bool("use-ollama", useOllamaDefault, "Enable the local Ollama classifier (env: USE_OLLAMA)")
		ollamaURL   = flag.String("ollama-url", getEnv("OLLAMA_URL", "http://localhost:11434"), "Ollama API URL (env: OLLAMA_URL)")
		ollamaModel = flag.String("ollama-model", getEnv("OLLAMA_MODEL", ""), "Ollama model (env: OLLAMA_MODEL)")
	)
	flag.Parse()

	cfg := config.FromEnv()
	ctx := context.Background()

	// Report store: durable when a database path is configured
	var store cache.Store
	if *dbPath != "" {
		sqliteStore, err := cache.NewSQLiteStore(*dbPath, cfg.CacheTTL)
		if err != nil {
			logger.Error("failed to open report store", "error", err, "database_path", *dbPath)
			os.Exit(1)
		}
		store = sqliteStore
		logger.Info("durable report store initialized", "path", *dbPath)
	} else {
		store = cache.NewMemoryStore(cfg.CacheTTL)
		logger.Info("in-memory report store initialized", "ttl", cfg.CacheTTL)
	}
	defer store.Close()

	// Classifier chain, ordered by preference; providers appear only when
	// their configuration is present
	var chain []detector.Classifier
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		chain = append(chain, providers.NewOpenAIClassifier(key, os.Getenv("OPENAI_MODEL")))
		logger.Info("OpenAI classifier configured")
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		gemini, err := providers.NewGeminiClassifier(ctx, key, os.Getenv("GEMINI_MODEL"))
		if err != nil {
			logger.Warn("failed to initialize Gemini classifier, skipping", "error", err)
		} else {
			chain = append(chain, gemini)
			logger.Info("Gemini classifier configured")
		}
	}
	if key := os.Getenv("GPTZERO_API_KEY"); key != "" {
		chain = append(chain, providers.NewGPTZeroClassifier(key))
		logger.Info("GPTZero classifier configured")
	}
	if *useOllama {
		ollama, err := providers.NewOllamaClassifier(*ollamaURL, *ollamaModel)
		if err != nil {
			logger.Warn("failed to initialize Ollama classifier, skipping", "error", err)
		} else {
			chain = append(chain, ollama)
			logger.Info("Ollama classifier configured", "url", *ollamaURL)
		}
	}
	if len(chain) == 0 {
		logger.Info("no classifiers configured, AI detection runs heuristic-only")
	}

	gateway := detector.NewGateway(chain, cfg.ProviderTimeout, logger)
	scorer := detector.NewScorer(cfg, gateway)

	// Search provider for the plagiarism branch
	var searcher search.Provider
	searchKey := os.Getenv("GOOGLE_SEARCH_API_KEY")
	engineID := os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	if searchKey != "" && engineID != "" {
		googleSearcher, err := search.NewGoogleSearcher(ctx, searchKey, engineID)
		if err != nil {
			logger.Warn("failed to initialize search provider, plagiarism detection disabled", "error", err)
		} else {
			searcher = googleSearcher
			logger.Info("Google Custom Search configured")
		}
	} else {
		logger.Info("no search provider configured, plagiarism detection disabled")
	}

	checker := plagiarism.NewChecker(cfg, searcher, logger)
	p := pipeline.New(cfg, scorer, checker, store, logger)

	// Background analysis over Redis, when configured
	var worker *queue.Worker
	var enqueuer api.Enqueuer
	if *redisAddr != "" {
		queueClient := queue.NewClient(queue.ClientConfig{RedisAddr: *redisAddr})
		defer queueClient.Close()
		enqueuer = queueClient

		worker = queue.NewWorker(queue.WorkerConfig{RedisAddr: *redisAddr, Concurrency: 4}, p, logger)
		go func() {
			if err := worker.Start(); err != nil {
				logger.Error("queue worker stopped", "error", err)
			}
		}()
		logger.Info("background analysis queue configured", "redis", *redisAddr)
	}

	apiHandler := api.NewHandler(p, enqueuer)

	// Middleware chain: HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("ai-checker")(apiHandler),
	)

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.OverallTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("ai-checker service starting",
			"port", *port,
			"classifiers", len(chain),
			"search_enabled", searcher != nil,
			"queue_enabled", *redisAddr != "",
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if worker != nil {
		worker.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
