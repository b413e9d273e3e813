package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/config"
	dbRedis "github.com/policy-oracle/policyoracle/internal/db/redis"
	logpkg "github.com/policy-oracle/policyoracle/internal/logger"
	"github.com/policy-oracle/policyoracle/internal/metrics"
	blobrepo "github.com/policy-oracle/policyoracle/internal/repository/blob"
	chunkrepo "github.com/policy-oracle/policyoracle/internal/repository/chunk"
	conversationrepo "github.com/policy-oracle/policyoracle/internal/repository/conversation"
	documentrepo "github.com/policy-oracle/policyoracle/internal/repository/document"
	httpTransport "github.com/policy-oracle/policyoracle/internal/transport/http"
	"github.com/policy-oracle/policyoracle/internal/upstream"
	chatuc "github.com/policy-oracle/policyoracle/internal/usecase/chat"
	conversationuc "github.com/policy-oracle/policyoracle/internal/usecase/conversation"
	ingestuc "github.com/policy-oracle/policyoracle/internal/usecase/ingest"
	retrievaluc "github.com/policy-oracle/policyoracle/internal/usecase/retrieval"
	"github.com/policy-oracle/policyoracle/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting policyoracle API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("upstream_model", cfg.Upstream.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.RegisterDomainMetrics()

	// Create repositories and ensure search indexes exist
	docRepo := documentrepo.New(store)
	chunkRepo := chunkrepo.New(store)
	blobStore := blobrepo.New(store)
	convRepo := conversationrepo.New(store)

	if err := docRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure document index", zap.Error(err))
	}
	if err := chunkRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure chunk index", zap.Error(err))
	}
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure conversation indexes", zap.Error(err))
	}

	// Upstream chat completions client
	upstreamClient := upstream.NewClient(&upstream.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		APIKey:         cfg.Upstream.APIKey,
		Model:          cfg.Upstream.Model,
		ConnectTimeout: time.Duration(cfg.Upstream.ConnectTimeoutSec) * time.Second,
		Logger:         logger,
	})

	// Create use case services
	ingestSvc := ingestuc.New(docRepo, chunkRepo, blobStore, logger).
		WithChunker(ingestuc.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)).
		WithDownloadTimeout(time.Duration(cfg.Ingest.DownloadTimeoutSec) * time.Second)
	retrievalSvc := retrievaluc.New(chunkRepo, docRepo, logger).
		WithSearchTimeout(time.Duration(cfg.Retrieval.SearchTimeoutSec) * time.Second)
	convSvc := conversationuc.New(convRepo, logger)
	chatSvc := chatuc.New(retrievalSvc, upstreamClient, convSvc, logger)

	server := httpTransport.NewServer(ingestSvc, chatSvc, convSvc, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		// WriteTimeout stays at the configured value; zero keeps chat
		// streams alive indefinitely.
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
