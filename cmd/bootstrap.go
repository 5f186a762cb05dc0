package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/buildreview/internal/agents"
	"github.com/buildreview/internal/config"
	"github.com/buildreview/internal/database"
	"github.com/buildreview/internal/invoker"
	"github.com/buildreview/internal/llm"
	"github.com/buildreview/internal/logging"
	"github.com/buildreview/internal/prompts"
	"github.com/buildreview/internal/review"
)

// engineComponents is the assembled orchestration engine a command runs
// against.
type engineComponents struct {
	cfg      *config.Config
	registry *agents.Registry
	manager  *prompts.Manager
	invoker  *invoker.Invoker
	engine   *review.Engine
	trace    *tracedClient
}

// bootstrap loads configuration, configures logging, builds the generation
// client, and wires the engine over in-memory stores.
func bootstrap(c *cli.Context) (*engineComponents, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.General.LogLevel, true)

	gen, err := buildGenerationClient(c.Context, cfg)
	if err != nil {
		return nil, err
	}

	promptStore, analysisStore, err := buildStores(cfg)
	if err != nil {
		return nil, err
	}

	trace := &tracedClient{inner: gen}
	registry := agents.NewRegistry()
	manager := prompts.NewManager(promptStore, trace)
	inv := invoker.New(registry, manager, trace)
	engine := review.NewEngine(inv, registry, manager, analysisStore)

	if cfg.Agents.CatalogueFile != "" {
		n, err := registry.LoadCatalogue(cfg.Agents.CatalogueFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load agent catalogue: %w", err)
		}
		log.Info().Int("agents", n).Str("file", cfg.Agents.CatalogueFile).Msg("Loaded agent catalogue")
	}

	return &engineComponents{
		cfg:      cfg,
		registry: registry,
		manager:  manager,
		invoker:  inv,
		engine:   engine,
		trace:    trace,
	}, nil
}

// buildStores selects the persistence backend. Postgres connects through
// DATABASE_URL; everything else stays in-process.
func buildStores(cfg *config.Config) (prompts.Store, review.AnalysisStore, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return prompts.NewInMemoryStore(), review.NewInMemoryAnalysisStore(), nil
	case "postgres":
		db, err := database.NewDB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return prompts.NewPostgresStore(db), review.NewPostgresAnalysisStore(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildGenerationClient constructs the configured provider client wrapped in
// the rate limiter.
func buildGenerationClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	name := cfg.General.DefaultAI
	aiCfg := cfg.AI[name]

	options := llm.Options{Provider: llm.Provider(name)}
	if v, ok := aiCfg["api_key"].(string); ok {
		options.APIKey = v
	}
	if v, ok := aiCfg["model"].(string); ok {
		options.Model = v
	}
	if v, ok := aiCfg["base_url"].(string); ok {
		options.BaseURL = v
	}
	if v, ok := aiCfg["temperature"].(float64); ok {
		options.Temperature = v
	}
	if v, ok := aiCfg["max_tokens"].(int64); ok {
		options.MaxTokens = int(v)
	}

	client, err := llm.NewLangchainClient(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	rps := cfg.RateLimit.RequestsPerSecond
	burst := cfg.RateLimit.Burst
	if rps <= 0 {
		return client, nil
	}
	return llm.NewRateLimitedClient(client, rps, burst), nil
}
