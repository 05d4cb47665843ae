// Package main is the entry point for the API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/skylight-social/skylight/internal/api"
	"github.com/skylight-social/skylight/internal/auth"
	"github.com/skylight-social/skylight/internal/authz"
	"github.com/skylight-social/skylight/internal/config"
	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/health"
	"github.com/skylight-social/skylight/internal/image"
	"github.com/skylight-social/skylight/internal/middleware"
	"github.com/skylight-social/skylight/internal/preview"
	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/session"
	"github.com/skylight-social/skylight/internal/tessellation"
	"github.com/skylight-social/skylight/internal/tracing"
)

// indexingRequester fans scene-change notifications out to the preview
// outbox and the in-process spatial index. The index refresh runs off the
// request path; a failed refresh only logs, the index catches up on the
// next restart.
type indexingRequester struct {
	outbox *preview.Outbox
	index  *tessellation.InMemoryService
	scenes scene.Repository
	logger *slog.Logger
}

func (r *indexingRequester) Enqueue(sceneID string) {
	r.outbox.Enqueue(sceneID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s, err := r.scenes.GetByID(ctx, sceneID)
		if err != nil {
			r.logger.Warn("spatial index refresh failed", "scene_id", sceneID, "error", err)
			return
		}
		r.index.Insert(tessellation.GlobalTable, s.ID, s.Place.RARad, s.Place.DecRad)
	}()
}

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Skylight API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	tracer, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "skylight-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}
	cancelPing()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)

	// Persistence
	scenes := scene.NewPostgresRepository(db, logger)
	handles := handle.NewPostgresDirectory(db, logger)
	images := image.NewPostgresStore(db, logger)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions := session.NewRedisStore(redisClient, sessionTTL)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewHTTPMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	previewMetrics := preview.NewMetrics()
	if err := previewMetrics.Register(registry); err != nil {
		logger.Error("failed to register preview metrics", "error", err)
		os.Exit(1)
	}

	// Preview outbox
	outbox := preview.NewOutbox(cfg.PreviewServiceURL, logger, previewMetrics)
	outboxCtx, stopOutbox := context.WithCancel(context.Background())
	go outbox.Run(outboxCtx)

	// Spatial index, seeded from the published corpus.
	index := tessellation.NewInMemoryService(tessellation.GlobalTable)
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	positions, err := scenes.PublishedPositions(seedCtx)
	cancelSeed()
	if err != nil {
		logger.Error("failed to seed spatial index", "error", err)
		os.Exit(1)
	}
	for id, place := range positions {
		index.Insert(tessellation.GlobalTable, id, place.RARad, place.DecRad)
	}
	logger.Info("spatial index seeded", "scenes", len(positions))

	// Core services
	gate := authz.NewGate(handles)
	requester := &indexingRequester{outbox: outbox, index: index, scenes: scenes, logger: logger}
	engine := scene.NewEngine(scenes, handles, images, gate, requester, logger)
	hydrator, err := scene.NewHydrator(handles, images, cfg.PreviewBaseURL)
	if err != nil {
		logger.Error("invalid preview base url", "error", err)
		os.Exit(1)
	}
	nearby := tessellation.NewAdapter(index, scenes, hydrator)

	jwtService := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)

	mux := api.NewRouter(api.Handlers{
		Scenes:       api.NewSceneHandlers(engine, scenes, hydrator, gate, sessions, logger),
		Interactions: api.NewInteractionHandlers(scenes, sessions, logger),
		Timelines:    api.NewTimelineHandlers(scenes, hydrator, sessions),
		Handles:      api.NewHandleHandlers(scenes, handles, gate),
		WTML:         api.NewWTMLHandlers(scenes, images),
		Nearby:       api.NewNearbyHandlers(nearby, sessions),
	}, registry, map[string]health.Checker{
		"database": health.NewDBChecker(db),
		"redis":    health.NewRedisChecker(redisClient),
	})

	// Logging sits innermost so the principal and session are in context
	// by the time the access log line is assembled.
	handler := middleware.RequestID(
		middleware.Tracing("skylight-api")(
			httpMetrics.Middleware(
				middleware.Principal(jwtService, logger)(
					middleware.Session(sessions, logger, sessionTTL, cfg.IsProduction())(
						middleware.Logging(logger)(mux))))))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	stopOutbox()
	outbox.Wait()

	if err := tracer.Shutdown(context.Background()); err != nil {
		logger.Error("tracer shutdown failed", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close failed", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Error("database close failed", "error", err)
	}

	logger.Info("server stopped")
}
