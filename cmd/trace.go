package cmd

import (
	"context"
	"sync"

	"github.com/buildreview/internal/llm"
	"github.com/buildreview/internal/logging"
)

// tracedClient decorates a generation client with per-review trace logging:
// every compiled prompt and raw response flows into the attached
// ReviewLogger. With no logger attached it is a plain passthrough.
type tracedClient struct {
	inner llm.Client

	mu     sync.Mutex
	logger *logging.ReviewLogger
	label  string
}

// attach points subsequent generation calls at the given review trace.
func (t *tracedClient) attach(logger *logging.ReviewLogger, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = logger
	t.label = label
}

func (t *tracedClient) Generate(ctx context.Context, prompt string) (string, error) {
	t.mu.Lock()
	logger, label := t.logger, t.label
	t.mu.Unlock()

	logger.LogPrompt(label, prompt)
	response, err := t.inner.Generate(ctx, prompt)
	if err != nil {
		logger.LogError("generation", err)
		return "", err
	}
	logger.LogResponse(label, response)
	return response, nil
}
