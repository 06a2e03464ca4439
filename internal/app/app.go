// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	gcstorage "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/blob"
	blobgcs "github.com/Djennat/web-scraping/internal/blob/gcs"
	blobmemory "github.com/Djennat/web-scraping/internal/blob/memory"
	clocksystem "github.com/Djennat/web-scraping/internal/clock/system"
	"github.com/Djennat/web-scraping/internal/config"
	"github.com/Djennat/web-scraping/internal/etl"
	"github.com/Djennat/web-scraping/internal/exchange"
	iduuid "github.com/Djennat/web-scraping/internal/id/uuid"
	"github.com/Djennat/web-scraping/internal/notify"
	notifypubsub "github.com/Djennat/web-scraping/internal/notify/pubsub"
	"github.com/Djennat/web-scraping/internal/requests"
	"github.com/Djennat/web-scraping/internal/results"
	"github.com/Djennat/web-scraping/internal/scraping"
	storememory "github.com/Djennat/web-scraping/internal/store/memory"
	storepostgres "github.com/Djennat/web-scraping/internal/store/postgres"
	storeredis "github.com/Djennat/web-scraping/internal/store/redis"
	"github.com/Djennat/web-scraping/internal/users"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and fails fast if any critical backend
// cannot be reached.
type App struct {
	Requests *requests.Service
	Exchange *exchange.Service
	Results  *results.Service
	Users    *users.Service

	logger       *zap.Logger
	pool         *pgxpool.Pool
	redisClient  *goredis.Client
	pubsubClient *pubsubv2.Client
	gcsClient    *gcstorage.Client
}

// New wires all providers according to the configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	clock := clocksystem.New()
	idGen := iduuid.NewGenerator()

	var (
		userStore    scraping.UserStore
		requestStore scraping.RequestStore
		resultStore  scraping.ResultStore
	)
	switch cfg.Providers.Store {
	case "postgres":
		logger.Info("connecting to postgres")
		pool, err := storepostgres.NewPool(ctx, storepostgres.Config{
			DSN:             cfg.DB.DSN,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: time.Duration(cfg.DB.ConnLifetimeMin) * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres: %w", err)
		}
		a.pool = pool
		if userStore, err = storepostgres.NewUserStore(pool); err != nil {
			return nil, err
		}
		if requestStore, err = storepostgres.NewRequestStore(pool); err != nil {
			return nil, err
		}
		if resultStore, err = storepostgres.NewResultStore(pool); err != nil {
			return nil, err
		}
	case "memory":
		logger.Info("using in-memory authoritative store; data is lost on restart")
		userStore = storememory.NewUserStore(idGen)
		requestStore = storememory.NewRequestStore(idGen)
		resultStore = storememory.NewResultStore(idGen)
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Providers.Store)
	}

	var mirrorStore scraping.MirrorStore
	switch cfg.Providers.Mirror {
	case "redis":
		logger.Info("connecting to redis mirror", zap.String("addr", cfg.Redis.Addr))
		client := goredis.NewClient(storeredis.Options(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
		if err := client.Ping(ctx).Err(); err != nil {
			// The mirror is best effort; a dead mirror at boot is logged,
			// not fatal.
			logger.Warn("redis mirror unreachable at startup", zap.Error(err))
		}
		a.redisClient = client
		store, err := storeredis.NewMirrorStore(client)
		if err != nil {
			return nil, err
		}
		mirrorStore = store
	case "memory":
		mirrorStore = storememory.NewMirrorStore()
	default:
		return nil, fmt.Errorf("unknown mirror provider: %s", cfg.Providers.Mirror)
	}

	var notifier notify.Notifier
	switch cfg.Providers.Notifier {
	case "pubsub":
		logger.Info("connecting to pubsub", zap.String("topic", cfg.PubSub.TopicName))
		client, err := pubsubv2.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub: %w", err)
		}
		a.pubsubClient = client
		notifier = notifypubsub.New(client.Publisher(cfg.PubSub.TopicName))
	case "noop":
		notifier = notify.NoOpNotifier{}
	default:
		return nil, fmt.Errorf("unknown notifier provider: %s", cfg.Providers.Notifier)
	}

	var archive blob.Store
	switch cfg.Providers.Blob {
	case "gcs":
		logger.Info("using GCS raw payload archive", zap.String("bucket", cfg.Blob.Bucket))
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs: %w", err)
		}
		a.gcsClient = client
		archive, err = blobgcs.New(client, blobgcs.Config{Bucket: cfg.Blob.Bucket, Prefix: cfg.Blob.Prefix})
		if err != nil {
			return nil, err
		}
	case "memory":
		archive = blobmemory.NewBlobStore()
	case "noop":
		archive = blob.NoOpStore{}
	default:
		return nil, fmt.Errorf("unknown blob provider: %s", cfg.Providers.Blob)
	}

	queue := exchange.NewQueue(idGen, clock, exchange.Config{
		MaxEntries: cfg.Exchange.MaxEntries,
		MaxAge:     cfg.ExchangeMaxAge(),
	}, logger.Named("exchange"))

	transformer := etl.NewTransformer(clock, logger.Named("etl"))

	a.Requests = requests.NewService(requestStore, userStore, notifier, clock, logger.Named("requests"))
	a.Exchange = exchange.NewService(queue, userStore, clock, logger.Named("exchange"))
	a.Results = results.NewService(
		userStore, resultStore, mirrorStore, archive, transformer, notifier, clock,
		results.Config{
			MirrorTimeout: cfg.MirrorTimeout(),
			MirrorRetries: cfg.Mirror.Retries,
			MirrorBackoff: cfg.MirrorBackoff(),
		},
		logger.Named("results"),
	)
	a.Users = users.NewService(userStore, notifier, clock, logger.Named("users"))

	logger.Info("application services initialized")
	return a, nil
}

// Close gracefully shuts down all services in the container. In-flight
// mirror writes are drained first so the best-effort path gets its
// chance before connections drop.
func (a *App) Close() {
	a.Results.Wait()
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("error closing redis client", zap.Error(err))
		}
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("error closing pubsub client", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("error closing gcs client", zap.Error(err))
		}
	}
	if err := a.logger.Sync(); err != nil {
		// Best effort; stderr may already be gone.
		_ = err
	}
}
