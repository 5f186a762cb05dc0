package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

var (
	// ErrExternalCall wraps failures reaching the generation capability.
	ErrExternalCall = errors.New("generation capability call failed")
	// ErrParse wraps malformed structured responses.
	ErrParse = errors.New("malformed structured response")
)

// Client is the opaque text-generation capability. Implementations must
// return machine-parseable structured content when the compiled prompt
// requests it.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider identifies a generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

// Options configures a langchain-backed client.
type Options struct {
	Provider    Provider `json:"provider"`
	APIKey      string   `json:"api_key"`
	BaseURL     string   `json:"base_url,omitempty"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
}

// LangchainClient implements Client over a langchaingo model.
type LangchainClient struct {
	model   llms.Model
	options Options
}

// NewLangchainClient constructs the underlying model for the configured
// provider.
func NewLangchainClient(ctx context.Context, options Options) (*LangchainClient, error) {
	var model llms.Model
	var err error

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.Model).
		Msg("Creating generation client")

	switch options.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(options.APIKey)}
		if options.Model != "" {
			opts = append(opts, openai.WithModel(options.Model))
		}
		if options.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(options.BaseURL))
		}
		model, err = openai.New(opts...)
	case ProviderGemini:
		opts := []googleai.Option{googleai.WithAPIKey(options.APIKey)}
		if options.Model != "" {
			opts = append(opts, googleai.WithDefaultModel(options.Model))
		}
		if options.MaxTokens > 0 {
			opts = append(opts, googleai.WithDefaultMaxTokens(options.MaxTokens))
		}
		model, err = googleai.New(ctx, opts...)
	case ProviderClaude:
		opts := []anthropic.Option{anthropic.WithToken(options.APIKey)}
		if options.Model != "" {
			opts = append(opts, anthropic.WithModel(options.Model))
		}
		model, err = anthropic.New(opts...)
	case ProviderOllama:
		opts := []ollama.Option{}
		if options.Model != "" {
			opts = append(opts, ollama.WithModel(options.Model))
		}
		if options.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(options.BaseURL))
		}
		model, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return &LangchainClient{model: model, options: options}, nil
}

// Generate sends the compiled prompt to the model and returns the raw text.
func (c *LangchainClient) Generate(ctx context.Context, prompt string) (string, error) {
	var callOpts []llms.CallOption
	if c.options.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.options.MaxTokens))
	}
	if c.options.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(c.options.Temperature))
	}
	if c.options.Provider == ProviderGemini && c.options.Model != "" {
		callOpts = append(callOpts, llms.WithModel(c.options.Model))
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExternalCall, c.options.Provider, err)
	}
	return response, nil
}

// RateLimitedClient throttles calls to an underlying client. Callers still
// await completion; the limiter only spaces out departures.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimitedClient allows rps requests per second with the given burst.
func NewRateLimitedClient(inner Client, rps float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *RateLimitedClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalCall, err)
	}
	return c.inner.Generate(ctx, prompt)
}
