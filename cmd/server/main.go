package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/daysense/daysense-api/internal/config"
	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/handlers"
	"github.com/daysense/daysense-api/internal/logger"
	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/daysense/daysense-api/internal/queue"
	"github.com/daysense/daysense-api/internal/services/ai"
	"github.com/daysense/daysense-api/internal/services/oidc"
	"github.com/daysense/daysense-api/internal/signals"
	"github.com/daysense/daysense-api/internal/telemetry"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Duration("sampling_interval", cfg.SamplingInterval),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "daysense-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_database")

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	migrateCancel()
	zapLogger.Info("database_schema_ready")

	// Connect to Redis for rate limiting
	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// Connect to RabbitMQ for job queue (required)
	// Retry connection with exponential backoff to handle RabbitMQ startup delays
	const maxRetries = 10
	const initialDelay = 2 * time.Second
	var jobQueue queue.JobQueue
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err = queue.NewRabbitMQQueue(cfg.RabbitMQURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			break
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt)) // Exponential backoff
		if delay > 30*time.Second {
			delay = 30 * time.Second // Cap at 30 seconds
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
			zap.Int("max_retries", maxRetries),
			zap.Error(lastErr),
		)
	}

	// Initialize repositories
	taskRepo := database.NewTaskRepository(db)
	energyRepo := database.NewEnergyEntryRepository(db)
	flowRepo := database.NewFlowScoreRepository(db)
	profileRepo := database.NewProfileRepository(db)
	reflectionRepo := database.NewReflectionRepository(db)
	userRepo := database.NewUserRepository(db)
	signalRepo := database.NewSignalSnapshotRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	// Initialize JWKS manager for token verification
	jwksManager := oidc.NewJWKSManager()

	// Initialize the narration provider. A missing API key is not fatal;
	// narration degrades to the deterministic local fallback.
	remoteProvider, err := createNarrationProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("remote_narration_disabled", zap.Error(err))
		remoteProvider = nil
	}
	narrator := ai.NewNarrator(remoteProvider, zapLogger)

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(taskRepo)
	energyHandler := handlers.NewEnergyHandler(energyRepo, profileRepo)
	flowScoreHandler := handlers.NewFlowScoreHandler(taskRepo, energyRepo, flowRepo, signalRepo)
	insightsHandler := handlers.NewInsightsHandler(narrator, taskRepo, profileRepo)
	reflectionHandler := handlers.NewReflectionHandler(reflectionRepo, jobQueue)
	profileHandler := handlers.NewProfileHandler(profileRepo)
	healthChecker := handlers.NewHealthChecker(db, jobQueue, redisLimiter)

	// Setup router
	r := mux.NewRouter()

	// Apply middleware (order matters - executed in reverse order of registration)
	// Note: In gorilla/mux, middleware executes in reverse order of registration
	// Middleware registered LAST executes FIRST (outermost wrapper)
	zapLogger.Info("setting_up_middleware")

	// Outermost middleware (executes first):
	// 0. OpenTelemetry tracing (if enabled)
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("daysense-api"))
		zapLogger.Info("otel_middleware_enabled")
	}
	// 1. Security headers (should be set on all responses)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// 2. CORS (load from DB, hot-reload; fallback to FRONTEND_URL)
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, 1*time.Minute)
	r.Use(corsReloader.Middleware())
	// Rate limit middleware (applied selectively to specific routes, not globally)
	rateLimitReloader := middleware.NewRateLimitReloader(redisLimiter.Client(), ratelimitConfigRepo, "5-S", zapLogger, 1*time.Minute)
	if rateLimitReloader == nil {
		zapLogger.Fatal("failed_to_create_rate_limit_reloader")
	}
	rateLimitMW := rateLimitReloader.Middleware()
	// 3. Request size limits (protects against DoS)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	// 4. Content-Type validation for POST/PATCH/PUT requests
	r.Use(middleware.ContentType)
	// 5. Request timeout (30 seconds default)
	r.Use(middleware.Timeout(30 * time.Second))
	// 6. Error handler (catches panics)
	r.Use(middleware.ErrorHandler(zapLogger))
	// 7. Audit logging (for security events)
	r.Use(middleware.Audit(zapLogger))
	// 8. Logging (innermost, executes last before handler)
	r.Use(middleware.Logging(zapLogger))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// OpenAPI spec (public)
	openAPIPath := filepath.Join("api", "openapi", "openapi.yaml")
	openAPIHandler := handlers.NewOpenAPIHandler(openAPIPath)
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes (all protected)
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	authMW := middleware.Auth(db, jwksManager, cfg.OIDCIssuer, cfg.OIDCJWKSURL)

	protect := func(prefix string) *mux.Router {
		sub := apiRouter.PathPrefix(prefix).Subrouter()
		sub.Use(authMW)
		sub.Use(rateLimitMW)
		return sub
	}

	taskHandler.RegisterRoutes(protect("/tasks"))
	energyHandler.RegisterRoutes(protect("/energy"))
	flowScoreHandler.RegisterRoutes(protect("/flow-score"))
	insightsHandler.RegisterRoutes(protect("/insights"))
	reflectionHandler.RegisterRoutes(protect("/reflection"))
	profileHandler.RegisterRoutes(protect("/profile"))

	// Catch-all OPTIONS handler for preflight requests
	// The CORS middleware will handle setting headers before this is called
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// CORS and rate limit hot-reload loops
	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()
	go corsReloader.Start(reloadCtx)
	go rateLimitReloader.Start(reloadCtx)

	// Behavioral signal sampling: every snapshot fans out as one inference
	// job per user, processed asynchronously by the worker.
	sampler := signals.NewSyntheticSampler(rand.NewSource(time.Now().UnixNano()))
	collector, err := signals.NewCollector(sampler, cfg.SamplingInterval, func(snapshot models.BehavioralSignals) {
		ctx, cancel := context.WithTimeout(reloadCtx, 30*time.Second)
		defer cancel()

		userIDs, err := userRepo.ListIDs(ctx)
		if err != nil {
			zapLogger.Warn("failed_to_list_users_for_inference", zap.Error(err))
			return
		}

		enqueued := 0
		for _, userID := range userIDs {
			// The snapshot also backs focus consistency in flow scoring;
			// persist it before the inference job races ahead.
			if err := signalRepo.Upsert(ctx, userID, snapshot, time.Now()); err != nil {
				zapLogger.Warn("failed_to_store_signal_snapshot",
					zap.String("user_id", userID.String()),
					zap.Error(err),
				)
			}
			job := queue.NewJob(queue.JobTypeEnergyInference, userID)
			job.Metadata["signals"] = snapshot
			// Stale snapshots are worthless; expire before the next tick
			notAfter := time.Now().Add(cfg.SamplingInterval)
			job.NotAfter = &notAfter
			if err := jobQueue.Enqueue(ctx, job); err != nil {
				zapLogger.Warn("failed_to_enqueue_inference_job",
					zap.String("user_id", userID.String()),
					zap.Error(err),
				)
				continue
			}
			enqueued++
		}

		zapLogger.Debug("enqueued_inference_jobs",
			zap.Int("user_count", len(userIDs)),
			zap.Int("enqueued", enqueued),
		)
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_signal_collector", zap.Error(err))
	}
	if err := collector.Start(); err != nil {
		zapLogger.Fatal("failed_to_start_signal_collector", zap.Error(err))
	}
	defer collector.Stop()
	zapLogger.Info("started_signal_collector",
		zap.Duration("interval", cfg.SamplingInterval),
	)

	// Start DLQ garbage collector if the queue implementation supports it
	// Run every hour, retain messages for 24 hours
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(reloadCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	reloadCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// createNarrationProvider creates the remote narration provider from
// configuration
func createNarrationProvider(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.NarrationProvider, error) {
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("Groq API key not configured")
	}

	providerType := cfg.AIProvider
	if providerType == "" {
		providerType = "groq"
	}

	// Create provider directly with logger support
	if providerType == "groq" {
		return ai.NewGroqProviderWithLogger(
			cfg.GroqAPIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			logger,
			debugMode,
		), nil
	}

	// Fallback to registry for other providers (without logger)
	registry := ai.NewProviderRegistry()
	ai.RegisterGroq(registry)
	ai.RegisterFallback(registry)

	config := map[string]string{
		"api_key":  cfg.GroqAPIKey,
		"model":    cfg.AIModel,
		"base_url": cfg.AIBaseURL,
	}

	return registry.GetProvider(providerType, config)
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info (sanitized for security)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
