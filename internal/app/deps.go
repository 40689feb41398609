package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"ankigen/internal/cache"
	"ankigen/internal/config"
	"ankigen/internal/llm"
	"ankigen/internal/logger"
	"ankigen/internal/queue"
	"ankigen/internal/store"
)

// Deps bundles runtime dependencies for the gateway service.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
}

// GeneratorDeps bundles runtime dependencies for the generator worker.
type GeneratorDeps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
	LLM    llm.Client
	Cache  cache.Cache
}

// BatchDeps bundles runtime dependencies for the batch CLI, which talks to
// the LLM directly without store or queue.
type BatchDeps struct {
	Config config.Config
	Log    *slog.Logger
	LLM    llm.Client
}

// Build loads env, config, and the gateway's shared components.
func Build() (Deps, error) {
	cfg, log := loadEnv()

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return Deps{
		Config: cfg,
		Log:    log,
		Store:  st,
		Queue:  q,
	}, nil
}

// BuildGenerator loads env, config, and the generator worker's components.
func BuildGenerator() (GeneratorDeps, error) {
	cfg, log := loadEnv()

	st, err := buildStore(cfg, log)
	if err != nil {
		return GeneratorDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return GeneratorDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return GeneratorDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	c := buildCache(cfg, log)
	return GeneratorDeps{
		Config: cfg,
		Log:    log,
		Store:  st,
		Queue:  q,
		LLM:    llmClient,
		Cache:  c,
	}, nil
}

// BuildBatch loads env, config, and an LLM client for the batch CLI.
func BuildBatch() (BatchDeps, error) {
	cfg, log := loadEnv()

	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return BatchDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return BatchDeps{
		Config: cfg,
		Log:    log,
		LLM:    llmClient,
	}, nil
}

func loadEnv() (config.Config, *slog.Logger) {
	// A missing .env file is fine; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "err", err)
	}
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel)
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel), cfg.LLMTemperature, cfg.LLMMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

// buildCache prefers Redis but degrades to a no-op cache rather than
// blocking startup; caching is an optimization, not a dependency.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, falling back to no-op cache", "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return c
	default:
		log.Info("using no-op cache")
		return cache.NewNoOpCache()
	}
}
