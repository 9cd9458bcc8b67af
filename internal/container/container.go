package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"resale/monitor/internal/config"
	"resale/monitor/internal/extract"
	"resale/monitor/internal/listing"
	"resale/monitor/internal/policy"
	"resale/monitor/internal/proxy"
	"resale/monitor/internal/queue"
	"resale/monitor/internal/reconcile"
	"resale/monitor/internal/repository"
	"resale/monitor/internal/secrets"
	"resale/monitor/internal/service"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Queue      queue.Queue
	Secrets    secrets.Store
	Repository repository.ItemRepository
	Extractor  extract.Extractor
	Listing    listing.Client
	Tokens     *listing.TokenSource

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	db, err := pgxpool.New(context.Background(),
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
		))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	container.db = db

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	container.redis = rdb
	log.Info("✅ Connected to Redis successfully")

	taskQueue, err := queue.NewRedisQueue(rdb, cfg.Queue)
	if err != nil {
		return nil, err
	}
	container.Queue = taskQueue

	secretStore := secrets.NewPostgresStore(db, cfg.Secrets)
	container.Secrets = secretStore

	itemRepo := repository.NewItemRepository(db, cfg.Database.ItemsTable)
	container.Repository = itemRepo

	proxySupplier, err := proxy.NewProxySupplier(context.Background(), cfg.Extractor.Proxies, cfg.Extractor.ProxyCheckURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	fetcher := extract.NewPageFetcher(cfg.Extractor, proxySupplier)
	extractor := extract.New(cfg.Extractor, fetcher)
	container.Extractor = extractor

	listingClient := listing.NewClient(cfg.Listing)
	container.Listing = listingClient

	clk := clock.New()
	tokens := listing.NewTokenSource(secretStore, cfg.Listing, clk)
	container.Tokens = tokens

	evaluator := policy.NewEvaluator(cfg.Policy)
	reconciler := reconcile.New(listingClient, tokens, evaluator, cfg.Listing)

	container.Service = service.NewService(
		taskQueue,
		extractor,
		reconciler,
		itemRepo,
		clk,
		cfg.Loop,
	)

	return container, nil
}

// Run executes the task loop until it reaches one of its stop bounds
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Service.Run(ctx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	c.db.Close()
	if err := c.redis.Close(); err != nil {
		return err
	}

	log.Info("Container shut down successfully")
	return nil
}
