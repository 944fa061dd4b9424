package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"termbridge/internal/config"
	"termbridge/internal/database"
	httpapi "termbridge/internal/http"
	"termbridge/internal/index"
	"termbridge/internal/logger"
	"termbridge/internal/repository"
	"termbridge/internal/search"
	"termbridge/internal/service"
	"termbridge/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "termbridge")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	searchCfg, err := config.LoadSearchConfig(cfg.SearchConfig)
	if err != nil {
		log.Fatal("failed to load search config", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var kv store.KV
	{
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unavailable, chat-answer caching disabled", zap.Error(err))
		} else {
			kv = store.NewRedisKV(redisClient)
		}
		cancel()
	}

	// Repositories: Postgres when available, in-memory fallback for DB-less
	// dev so search/translate still answer with whatever has been upserted.
	var db *sql.DB
	var termsRepo repository.TermsRepo
	var conceptsRepo repository.ConceptMapRepo
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for termbridge")
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory stores", zap.Error(err))
		}
	}
	if db != nil {
		termsRepo = repository.NewPostgresTermsRepo(db)
		conceptsRepo = repository.NewPostgresConceptMapRepo(db)
	} else {
		termsRepo = repository.NewMemoryTermsRepo()
		conceptsRepo = repository.NewMemoryConceptMapRepo()
	}

	// The index is derived state; build it from the term store on start.
	idx := index.New()
	{
		rebuildCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := idx.Rebuild(rebuildCtx, termsRepo); err != nil {
			log.Error("initial index rebuild failed", zap.Error(err))
		} else {
			log.Info("search index built", zap.Int("terms", idx.Len()))
		}
		cancel()
	}

	engine := search.NewEngine(idx, searchCfg)
	svc := service.NewTerminologyService(termsRepo, conceptsRepo, idx, engine, log)
	rag := service.NewRAGClient(
		cfg.RAG.BaseURL,
		time.Duration(cfg.RAG.TimeoutSecs)*time.Second,
		kv,
		time.Duration(cfg.RAG.AnswerCacheTTL)*time.Second,
		log,
	)

	router := httpapi.NewRouter(log)
	router.RegisterTerminologyRoutes(httpapi.NewTerminologyHandler(svc, rag, log))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(db, redisClient, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
