package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kdduha/lungscan/internal/cache"
	"github.com/kdduha/lungscan/internal/classifier"
	"github.com/kdduha/lungscan/internal/config"
	"github.com/kdduha/lungscan/internal/handler"
	"github.com/kdduha/lungscan/internal/metrics"
	"github.com/kdduha/lungscan/internal/service"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/kdduha/lungscan/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title lungscan API
// @version 1.0
// @description Chest CT scan classification.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.Default()

	meta, err := loadMetadata(logger, cfg.Model)
	if err != nil {
		logger.Fatalf("metadata error: %v", err)
	}

	clf, closeClf, loadErr := newClassifier(cfg, meta)
	predictService := service.NewPredictService(logger, clf, meta.ClassNames, cfg.Upload.MaxBytes)
	if loadErr != nil {
		// The server still starts so /health can report the failure.
		logger.Printf("model load failed: %v\n", loadErr)
		predictService.SetLoadError(loadErr)
	} else {
		defer closeClf()
		logger.Printf("model loaded: backend=%s classes=%v\n", cfg.Model.Backend, meta.Classes)
	}

	if cfg.CacheEnable {
		redisCache := cache.NewRedisCache(
			cfg.RedisConfig.Addr,
			cfg.RedisConfig.Password,
			cfg.RedisConfig.DB,
			cfg.RedisConfig.TTL,
		)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Printf("redis ping failed: %v\n", err)
		}
		predictService.SetCacheClient(redisCache)
		logger.Println("set redis as cache")
	}

	p := handler.NewPredictHandler(predictService, cfg.Upload.MaxBytes)

	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Throttle(cfg.Server.ThrottleLimit),
		middleware.Timeout(cfg.Server.Timeout),
		metrics.Middleware,
	}...)

	r.Post("/predict", p.Predict)
	r.Get("/health", p.Health)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Printf("server started :%s\n", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Println("server stopped")
}

func loadMetadata(logger *log.Logger, cfg config.ModelConfig) (classifier.Metadata, error) {
	if _, err := os.Stat(cfg.MetadataPath); os.IsNotExist(err) {
		logger.Printf("metadata %s not found, using built-in classes\n", cfg.MetadataPath)
		return classifier.DefaultMetadata(), nil
	}
	return classifier.LoadMetadata(cfg.MetadataPath)
}

func newClassifier(cfg *config.Config, meta classifier.Metadata) (service.Classifier, func(), error) {
	switch cfg.Model.Backend {
	case "onnx":
		if _, err := os.Stat(cfg.Model.Path); err != nil {
			return nil, nil, fmt.Errorf("model file: %w", err)
		}
		clf, err := classifier.NewONNX(cfg.Model.Path, cfg.Model.LibraryPath, meta)
		if err != nil {
			return nil, nil, err
		}
		return clf, clf.Close, nil
	case "openai":
		client := openai.NewClient(
			option.WithAPIKey(cfg.OpenAI.APIKey),
			option.WithBaseURL(cfg.OpenAI.BaseURL),
		)
		return classifier.NewOpenAI(client, cfg.OpenAI.Model, meta), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown model backend %q", cfg.Model.Backend)
	}
}
