package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildreview/internal/config"
	"github.com/buildreview/internal/prompts"
	"github.com/buildreview/internal/review"
)

func TestBuildStores_DefaultsToMemory(t *testing.T) {
	promptStore, analysisStore, err := buildStores(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, &prompts.InMemoryStore{}, promptStore)
	assert.IsType(t, &review.InMemoryAnalysisStore{}, analysisStore)
}

func TestBuildStores_ExplicitMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "memory"
	promptStore, analysisStore, err := buildStores(cfg)
	require.NoError(t, err)
	assert.IsType(t, &prompts.InMemoryStore{}, promptStore)
	assert.IsType(t, &review.InMemoryAnalysisStore{}, analysisStore)
}

func TestBuildStores_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "cassandra"
	_, _, err := buildStores(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}
