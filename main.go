package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/portalworker/config"
	"sjsage522/portalworker/helpers"
	"sjsage522/portalworker/internal/scraper"
	"sjsage522/portalworker/logger"
	"sjsage522/portalworker/services/cache"
	"sjsage522/portalworker/services/publisher"
	"sjsage522/portalworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("scrape_interval", cfg.ScrapeInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// The fetcher carries all session behavior as an immutable value;
	// every scraper shares the same token bucket.
	fetcher := helpers.NewFetcher(helpers.FetcherConfig{
		RequestsPerSecond: cfg.FetchRequestsPerSecond,
		Burst:             cfg.FetchBurst,
		CheckRobots:       cfg.CheckRobots,
	})

	// Create vertical scrapers
	scrapers := scraper.CreateScrapers(&cfg, services.Cache, fetcher)
	if len(scrapers) == 0 {
		log.Fatal().Msg("No scrapers were created")
	}

	log.Info().
		Int("scraper_count", len(scrapers)).
		Msg("Created scrapers")

	// Create and start worker
	w := worker.NewWorker(
		ctx,
		scrapers,
		services.Publisher,
		logger.ForWorker(),
		cfg.ScrapeInterval,
	)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting portal scraper worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if cacheService == nil {
		return nil, fmt.Errorf("failed to create cache service")
	}
	services.Cache = cacheService

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
