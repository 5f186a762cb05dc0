package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildreview/internal/logging"
)

type stubGen struct {
	response string
}

func (g *stubGen) Generate(ctx context.Context, prompt string) (string, error) {
	return g.response, nil
}

func TestTracedClient_RecordsPromptAndResponse(t *testing.T) {
	t.Chdir(t.TempDir())

	logger, err := logging.StartReviewLogging("proj-42")
	require.NoError(t, err)

	trace := &tracedClient{inner: &stubGen{response: "the generated answer"}}
	trace.attach(logger, "proj-42")

	out, err := trace.Generate(context.Background(), "compiled prompt body")
	require.NoError(t, err)
	assert.Equal(t, "the generated answer", out)
	logger.Close()

	entries, err := os.ReadDir("review_logs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	raw, err := os.ReadFile(filepath.Join("review_logs", entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "compiled prompt body")
	assert.Contains(t, string(raw), "the generated answer")
}

func TestTracedClient_PassthroughWithoutLogger(t *testing.T) {
	trace := &tracedClient{inner: &stubGen{response: "ok"}}
	out, err := trace.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
