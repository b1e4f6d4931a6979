package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tagresolver/pkg/cache"
	"github.com/matzehuels/tagresolver/pkg/cache/mongo"
	"github.com/matzehuels/tagresolver/pkg/cache/nats"
	"github.com/matzehuels/tagresolver/pkg/cache/redis"
	"github.com/matzehuels/tagresolver/pkg/config"
	"github.com/matzehuels/tagresolver/pkg/integrations/github"
	"github.com/matzehuels/tagresolver/pkg/resolve"
)

// =============================================================================
// Store Factory
// =============================================================================

// openStore connects the backend selected by cfg. The caller closes the
// returned store.
func openStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return cache.NewMemoryStore(), nil
	case config.BackendNone:
		return cache.NewNullStore(), nil
	case config.BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return nil, fmt.Errorf("get cache dir: %w", err)
			}
			dir = d
		}
		return cache.NewFileStore(dir)
	case config.BackendRedis:
		return redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case config.BackendNATS:
		return nats.New(ctx, nats.Config{
			URL:    cfg.NATS.URL,
			Bucket: cfg.NATS.Bucket,
			Name:   appName,
		})
	case config.BackendMongo:
		return mongo.New(ctx, mongo.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// =============================================================================
// Service Factory
// =============================================================================

// newService assembles the resolution service from cfg. The returned store
// must be closed by the caller once the service is no longer used.
func newService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*resolve.Service, cache.Store, error) {
	allow, err := cfg.AllowList()
	if err != nil {
		return nil, nil, err
	}
	if allow.Len() == 0 {
		logger.Warn("allow-list is empty, every request will be rejected")
	}

	store, err := openStore(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}

	gh := github.NewClient(github.Config{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
		Timeout: cfg.GitHub.Timeout.Duration,
	})
	if cfg.GitHub.Token == "" {
		logger.Warn("no GitHub token configured, requests are subject to anonymous rate limits")
	}

	svc := resolve.NewService(resolve.ServiceConfig{
		Allow:    allow,
		Resolver: resolve.NewResolver(gh),
		Cache: resolve.NewCache(store, resolve.WithTTL(resolve.TTLPolicy{
			Latest: cfg.Cache.TTLLatest.Duration,
			Pinned: cfg.Cache.TTLPinned.Duration,
		})),
		Logger: logger,
	})
	return svc, store, nil
}
