package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/cache"
	"github.com/kailas-cloud/jobmatch/internal/config"
	dbRedis "github.com/kailas-cloud/jobmatch/internal/db/redis"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/cursor"
	"github.com/kailas-cloud/jobmatch/internal/index"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
	interactionrepo "github.com/kailas-cloud/jobmatch/internal/repository/interaction"
	jobrepo "github.com/kailas-cloud/jobmatch/internal/repository/job"
	profilerepo "github.com/kailas-cloud/jobmatch/internal/repository/profile"
	recrepo "github.com/kailas-cloud/jobmatch/internal/repository/recommendation"
	chiTransport "github.com/kailas-cloud/jobmatch/internal/transport/chi"
	activityuc "github.com/kailas-cloud/jobmatch/internal/usecase/activity"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/jobmatch/internal/usecase/indexing"
	recommenduc "github.com/kailas-cloud/jobmatch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/jobmatch/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/jobmatch/internal/usecase/suggest"
	trendinguc "github.com/kailas-cloud/jobmatch/internal/usecase/trending"
	"github.com/kailas-cloud/jobmatch/internal/version"
)

const expirySweepInterval = time.Minute

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting jobmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("cache_backend", cfg.Cache.Backend),
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

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterMetrics()

	analyzer, err := analysis.New()
	if err != nil {
		logger.Fatal("Failed to build text analyzer", zap.Error(err))
	}
	now := time.Now

	ix := index.New(analyzer, index.Weights{
		Title:       cfg.Search.Weights.Title,
		Description: cfg.Search.Weights.Description,
		Company:     cfg.Search.Weights.Company,
	}, index.WithTombstoneRetention(time.Duration(cfg.Search.TombstoneRetentionSec)*time.Second))

	respCache := buildCache(ctx, cfg, store, logger)
	defer func() { _ = respCache.Close() }()

	// Repositories
	jobs := jobrepo.New(store)
	profiles := profilerepo.New(store)
	interactions := interactionrepo.New(store, int64(cfg.Recommend.InteractionHistory))
	recSets := recrepo.New(store, time.Duration(cfg.Recommend.RetentionSec)*time.Second)

	// Use case services
	indexingSvc := indexinguc.New(ix, jobs, respCache, logger)

	codec, err := cursor.NewCodec([]byte(cfg.Search.CursorSecret))
	if err != nil {
		logger.Fatal("Failed to create cursor codec", zap.Error(err))
	}
	searchSvc := searchuc.New(
		ix,
		searchuc.NewParser(analyzer, cfg.Search.DefaultLanguage),
		searchuc.NewRanker(searchuc.RankerConfig{
			FuzzyDamping:   cfg.Search.FuzzyDamping,
			FuzzyThreshold: cfg.Search.FuzzyThreshold,
			Epsilon:        cfg.Search.Epsilon,
			MaxCandidates:  cfg.Search.MaxCandidates,
		}, now),
		codec,
		respCache,
		searchuc.Config{
			DefaultPageSize: cfg.Search.DefaultPageSize,
			MaxPageSize:     cfg.Search.MaxPageSize,
			CacheTTL:        time.Duration(cfg.Cache.SearchTTLSec) * time.Second,
		},
		logger,
	)
	suggestSvc := suggestuc.New(ix, respCache, suggestuc.Config{
		DefaultLimit:     cfg.Suggest.DefaultLimit,
		MaxLimit:         cfg.Suggest.MaxLimit,
		Threshold:        cfg.Suggest.Threshold,
		PrefixBoost:      cfg.Suggest.PrefixBoost,
		MinDescriptionDF: cfg.Suggest.MinDescriptionDF,
		CacheTTL:         time.Duration(cfg.Cache.SuggestTTLSec) * time.Second,
	}, logger)
	trendingSvc := trendinguc.New(ix, respCache, trendinguc.Config{
		HalfLife: time.Duration(cfg.Search.PopularityHalfLifeHrs) * time.Hour,
		CacheTTL: time.Duration(cfg.Cache.TrendingTTLSec) * time.Second,
	}, logger)

	rc := cfg.Recommend
	engine := recommenduc.NewEngine(analyzer, recommenduc.EngineConfig{
		Weights: recommenduc.Weights{
			Content:       rc.Weights.Content,
			Collaborative: rc.Weights.Collaborative,
			Popularity:    rc.Weights.Popularity,
		},
		HalfLife: time.Duration(rc.HalfLifeHours) * time.Hour,
		MinScore: rc.MinScore,
	})
	recommendSvc := recommenduc.New(ix, engine, profiles, interactions, recSets, recommenduc.Config{
		DefaultLimit:     rc.DefaultLimit,
		MaxLimit:         rc.MaxLimit,
		Neighbors:        rc.Neighbors,
		TTL:              time.Duration(rc.TTLSec) * time.Second,
		OnDemandTimeout:  time.Duration(rc.OnDemandTimeoutMs) * time.Millisecond,
		BatchBudget:      time.Duration(rc.BatchBudgetSec) * time.Second,
		BatchMaxUsers:    rc.BatchMaxUsers,
		BatchConcurrency: rc.BatchConcurrency,
	}, logger)
	activitySvc := activityuc.New(profiles, interactions, recommendSvc, logger)
	healthSvc := healthuc.New(store, indexingSvc)

	// Warm the index from persisted jobs before serving.
	if _, err := indexingSvc.Bootstrap(ctx); err != nil {
		logger.Fatal("Failed to bootstrap index", zap.Error(err))
	}
	go indexingSvc.RunExpiry(ctx, expirySweepInterval)

	scheduler, err := recommenduc.NewScheduler(rc.BatchSchedule, recommendSvc, logger)
	if err != nil {
		logger.Fatal("Invalid recommendation batch schedule", zap.Error(err))
	}
	go scheduler.Run(ctx)

	server := chiTransport.NewServer(chiTransport.Services{
		Search:    searchSvc,
		Suggest:   suggestSvc,
		Trending:  trendingSvc,
		Recommend: recommendSvc,
		Indexing:  indexingSvc,
		Activity:  activitySvc,
		Cache:     respCache,
		Health:    healthSvc,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildCache wires the configured backend and, for the per-instance memory
// backend, the Redis invalidation bus that keeps instances coherent.
func buildCache(ctx context.Context, cfg config.Config, store *dbRedis.Store, logger *zap.Logger) *cache.Cache {
	cc := cfg.Cache
	cacheCfg := cache.Config{
		FillTimeout: time.Duration(cc.FillTimeoutMs) * time.Millisecond,
		LoadTimeout: time.Duration(cc.LoadTimeoutMs) * time.Millisecond,
		StaleGrace:  time.Duration(cc.StaleGraceSec) * time.Second,
	}

	if cc.Backend == "redis" {
		return cache.New(cache.NewRedis(store), cacheCfg, logger)
	}

	bus := cache.NewBus(store, cc.InvalidationChannel, logger)
	mem := cache.NewMemory(cc.Shards, cc.MaxEntriesPerShard, time.Duration(cc.JanitorIntervalSec)*time.Second)
	c := cache.New(mem, cacheCfg, logger, cache.WithNotifier(bus))
	go bus.Run(ctx, c.InvalidateLocal)
	return c
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("Panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
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

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
