package invoker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildreview/internal/agents"
	"github.com/buildreview/internal/llm"
	"github.com/buildreview/internal/prompts"
)

type scriptedGen struct {
	response string
	err      error
	prompts  []string
}

func (g *scriptedGen) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type fixture struct {
	invoker *Invoker
	manager *prompts.Manager
	gen     *scriptedGen
	prompt  *prompts.Template
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen := &scriptedGen{response: "plain answer"}
	registry := agents.NewRegistry()
	manager := prompts.NewManager(prompts.NewInMemoryStore(), gen)
	inv := New(registry, manager, gen)

	require.NoError(t, inv.RegisterAgent(&agents.Descriptor{
		ID:             "agent-electrical",
		Name:           "Electrical Specialist",
		Specialization: "electrical",
		ProjectTypes:   []agents.ProjectType{agents.ProjectLoftConversion},
	}))

	created, err := manager.CreatePrompt(context.Background(), prompts.Draft{
		Name:     "Electrical assessment",
		Category: "electrical",
		Template: "Assess electrical work for {{ project_type }} at {{ property.address }}.",
	})
	require.NoError(t, err)

	return &fixture{invoker: inv, manager: manager, gen: gen, prompt: created}
}

func TestInvoker_GetAgent_CacheMissPopulates(t *testing.T) {
	f := newFixture(t)

	// Register directly on the registry so the invoker cache never saw it.
	require.NoError(t, f.invoker.registry.Register(&agents.Descriptor{
		ID:             "agent-plumbing",
		Specialization: "plumbing",
		ProjectTypes:   []agents.ProjectType{agents.ProjectBathroom},
	}))

	got, err := f.invoker.GetAgent("agent-plumbing")
	require.NoError(t, err)
	assert.Equal(t, "agent-plumbing", got.ID)

	f.invoker.cacheMu.RLock()
	_, cached := f.invoker.cache["agent-plumbing"]
	f.invoker.cacheMu.RUnlock()
	assert.True(t, cached)
}

func TestInvoker_GetAgent_ResultsDoNotShareState(t *testing.T) {
	f := newFixture(t)

	registered := &agents.Descriptor{
		ID:             "agent-roofing",
		Specialization: "roofing",
		ProjectTypes:   []agents.ProjectType{agents.ProjectLoftConversion},
	}
	require.NoError(t, f.invoker.RegisterAgent(registered))

	// Mutating the caller's descriptor after registration must not reach the
	// cache.
	registered.Specialization = "demolition"

	a, err := f.invoker.GetAgent("agent-roofing")
	require.NoError(t, err)
	b, err := f.invoker.GetAgent("agent-roofing")
	require.NoError(t, err)
	assert.Equal(t, "roofing", a.Specialization)

	// Two reads must not alias one struct either.
	a.Specialization = "plumbing"
	a.ProjectTypes[0] = agents.ProjectBathroom
	assert.Equal(t, "roofing", b.Specialization)
	assert.Equal(t, agents.ProjectLoftConversion, b.ProjectTypes[0])
}

func TestInvoker_InvokeAgent_CompilesContextAndSuffix(t *testing.T) {
	f := newFixture(t)

	resp, err := f.invoker.InvokeAgent(context.Background(), Invocation{
		AgentID:     "agent-electrical",
		RequestType: RequestGenerateQuestions,
		Context: Context{
			ProjectType: "loft_conversion",
			Property:    PropertyDetails{Address: "3 Elm Street"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "agent-electrical", resp.AgentID)

	require.Len(t, f.gen.prompts, 1)
	sent := f.gen.prompts[0]
	assert.Contains(t, sent, "loft_conversion")
	assert.Contains(t, sent, "3 Elm Street")
	assert.Contains(t, sent, `"questions" array`)
}

func TestInvoker_InvokeAgent_UnknownAgent(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoker.InvokeAgent(context.Background(), Invocation{AgentID: "missing"})
	assert.ErrorIs(t, err, agents.ErrAgentNotFound)
}

func TestInvoker_InvokeAgent_NoActiveVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Delete the only prompt so binding succeeds for nothing.
	require.NoError(t, f.manager.DeletePrompt(ctx, f.prompt.ID))

	_, err := f.invoker.InvokeAgent(ctx, Invocation{AgentID: "agent-electrical"})
	assert.ErrorIs(t, err, ErrNoPromptForAgent)
}

func TestInvoker_InvokeAgent_PinnedVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v2 := "Version two body for {{ project_type }}."
	_, err := f.manager.UpdatePrompt(ctx, f.prompt.ID, prompts.Update{Template: &v2}, "rev", "ops")
	require.NoError(t, err)

	_, err = f.invoker.InvokeAgent(ctx, Invocation{
		AgentID:       "agent-electrical",
		RequestType:   RequestGeneral,
		PromptVersion: 1,
		Context:       Context{ProjectType: "loft_conversion"},
	})
	require.NoError(t, err)
	assert.Contains(t, f.gen.prompts[0], "Assess electrical work")

	_, err = f.invoker.InvokeAgent(ctx, Invocation{
		AgentID:     "agent-electrical",
		RequestType: RequestGeneral,
		Context:     Context{ProjectType: "loft_conversion"},
	})
	require.NoError(t, err)
	assert.Contains(t, f.gen.prompts[1], "Version two body")
}

func TestInvoker_InvokeAgent_PinnedVersionMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoker.InvokeAgent(context.Background(), Invocation{
		AgentID:       "agent-electrical",
		PromptVersion: 42,
	})
	assert.ErrorIs(t, err, prompts.ErrNotFound)
}

func TestInvoker_InvokeAgent_ExternalCallFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.err = llm.ErrExternalCall

	_, err := f.invoker.InvokeAgent(context.Background(), Invocation{AgentID: "agent-electrical"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrExternalCall))
}

func TestNormalizeResponse_PlainTextDefaults(t *testing.T) {
	resp := normalizeResponse("a1", "just words, no JSON")
	assert.Equal(t, "just words, no JSON", resp.Response)
	assert.Equal(t, 0.8, resp.Confidence)
	assert.Empty(t, resp.Recommendations)
	assert.Empty(t, resp.NextQuestions)
	assert.Empty(t, resp.Data)
}

func TestNormalizeResponse_StructuredEnvelope(t *testing.T) {
	raw := `{"content": "the answer", "confidence": 0.95, "recommendations": ["add RCD protection"], "nextQuestions": ["what is the consumer unit rating?"], "structuredData": {"circuits": 4}}`
	resp := normalizeResponse("a1", raw)
	assert.Equal(t, "the answer", resp.Response)
	assert.Equal(t, 0.95, resp.Confidence)
	assert.Equal(t, []string{"add RCD protection"}, resp.Recommendations)
	assert.Equal(t, []string{"what is the consumer unit rating?"}, resp.NextQuestions)
	assert.Equal(t, float64(4), resp.Data["circuits"])
}

func TestNormalizeResponse_BareStructuredPayloadKeptInData(t *testing.T) {
	raw := `{"questions": [{"id": "q1", "question": "How old is the wiring?"}]}`
	resp := normalizeResponse("a1", raw)
	assert.Equal(t, 0.8, resp.Confidence)
	assert.Contains(t, resp.Data, "questions")
}
