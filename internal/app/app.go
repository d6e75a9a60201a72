// Package app wires configuration into the running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"growdoctor/internal/cache"
	"growdoctor/internal/config"
	"growdoctor/internal/diagnosis"
	"growdoctor/internal/i18n"
	"growdoctor/internal/metrics"
	"growdoctor/internal/repository"
	"growdoctor/internal/service"
	"growdoctor/internal/transport/rest"
	"growdoctor/internal/transport/ws"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pingTimeout = 5 * time.Second

// App holds every long-lived component of the server
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Catalog  *i18n.Catalog
	Metrics  *metrics.Metrics
	Cache    cache.DiagnosisCache
	Diagnose *service.DiagnoseService
	WSHub    *ws.Hub

	closers []func(context.Context) error
}

// New connects the configured cache backend and builds the service graph
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(nil),
	}

	catalog, err := i18n.Load()
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog

	pipeline, err := NewPipeline(cfg.Rules, catalog, logger)
	if err != nil {
		return nil, err
	}

	c, err := a.openCache(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Cache = c

	vision, err := service.NewVisionClient(cfg.AI, &http.Client{}, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.WSHub = ws.NewHub(logger)
	a.closers = append(a.closers, func(context.Context) error {
		a.WSHub.Close()
		return nil
	})

	a.Diagnose = service.NewDiagnoseService(vision, pipeline, c, catalog, a.Metrics, cfg.AI.Timeout, logger)
	// wsHub implements service.Broadcaster
	a.Diagnose.SetBroadcaster(a.WSHub)

	logger.Info("app.ready",
		"provider", service.ProviderName(vision),
		"model", cfg.AI.Model,
		"api_key", cfg.AI.IsEnabled(),
		"cache", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
		"languages", catalog.Supported())
	return a, nil
}

// NewPipeline builds the normalization pipeline from the rules section
func NewPipeline(rules config.RulesConfig, texts diagnosis.Texts, logger *slog.Logger) (*diagnosis.Pipeline, error) {
	kw, err := diagnosis.LoadKeywords(rules.KeywordsFile)
	if err != nil {
		return nil, err
	}
	th := diagnosis.Thresholds{
		DefaultConfidence:         rules.DefaultConfidence,
		DefaultImageQuality:       rules.DefaultImageQuality,
		AlternativeMinConfidence:  rules.AlternativeMinConfidence,
		LowImageQuality:           rules.LowImageQuality,
		FertilizerMinImageQuality: rules.FertilizerMinImageQuality,
		FertilizerMinConfidence:   rules.FertilizerMinConfidence,
	}
	return diagnosis.NewPipeline(texts, diagnosis.Options{
		Thresholds:    &th,
		Keywords:      kw,
		UselessValues: rules.UselessValues,
	}, logger)
}

func (a *App) openCache(ctx context.Context) (cache.DiagnosisCache, error) {
	cc := a.Config.Cache
	switch cc.Backend {
	case config.CacheRedis:
		opts, err := redis.ParseURL(cc.RedisURI)
		if err != nil {
			return nil, fmt.Errorf("parse redis uri: %w", err)
		}
		rdb := redis.NewClient(opts)
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.Logger.Info("cache.connected", "backend", cc.Backend, "addr", opts.Addr)
		return cache.NewRedisCache(rdb, cc.TTL, a.Logger), nil

	case config.CacheMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cc.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		a.closers = append(a.closers, client.Disconnect)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		repo := repository.NewDiagnosisRepo(client.Database(cc.MongoDatabase), cc.TTL, a.Logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		a.Logger.Info("cache.connected", "backend", cc.Backend, "database", cc.MongoDatabase)
		return repo, nil

	default:
		mc := cache.NewMemoryCache(cc.TTL, cc.SweepInterval)
		a.closers = append(a.closers, func(context.Context) error { return mc.Close() })
		a.Logger.Info("cache.connected", "backend", config.CacheMemory)
		return mc, nil
	}
}

// Router returns the HTTP handler for the whole API
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		DiagnoseService:    a.Diagnose,
		Metrics:            a.Metrics,
		WSHub:              a.WSHub,
		Logger:             a.Logger,
		CORSAllowedOrigins: a.Config.Server.CORSAllowedOrigins,
		UploadMaxBytes:     a.Config.Upload.MaxBytes,
		UploadAllowedTypes: a.Config.Upload.AllowedTypes,
	})
}

// RunSweeper evicts expired entries every interval until ctx is done. The
// memory backend sweeps itself, so this only matters for mongo.
func (a *App) RunSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 || a.Config.Cache.Backend != config.CacheMongo {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := a.Cache.EvictExpired(ctx, now)
			if err != nil {
				a.Logger.Warn("cache.sweep_failed", "err", err)
				continue
			}
			if n > 0 {
				a.Logger.Info("cache.swept", "evicted", n)
			}
		}
	}
}

// Close releases connections in reverse order of opening
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
