package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/buildreview/internal/agents"
	"github.com/buildreview/internal/llm"
	"github.com/buildreview/internal/prompts"
)

// ErrNoPromptForAgent is returned when an agent has no prompt bound to its
// specialization category.
var ErrNoPromptForAgent = errors.New("no prompt bound for agent")

// Invoker compiles an agent's prompt against a context, calls the generation
// capability, and normalizes the response. Agent lookups go through a
// read-through cache populated on write and on read-miss; entries are
// overwritten on re-registration and never expire (bulk-load then read-mostly
// usage).
type Invoker struct {
	registry *agents.Registry
	manager  *prompts.Manager
	gen      llm.Client
	binder   PromptBinder

	cacheMu sync.RWMutex
	cache   map[string]*agents.Descriptor
}

// PromptBinder maps an agent to its prompt template id. The default binding
// is by specialization category.
type PromptBinder func(ctx context.Context, manager *prompts.Manager, agent *agents.Descriptor) (string, error)

// BindBySpecialization resolves the prompt whose category equals the agent's
// specialization. First match wins.
func BindBySpecialization(ctx context.Context, manager *prompts.Manager, agent *agents.Descriptor) (string, error) {
	all, err := manager.ListPrompts(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range all {
		if t.Category == agent.Specialization {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoPromptForAgent, agent.ID)
}

// New creates an invoker over the registry, prompt manager, and generation
// client.
func New(registry *agents.Registry, manager *prompts.Manager, gen llm.Client) *Invoker {
	return &Invoker{
		registry: registry,
		manager:  manager,
		gen:      gen,
		binder:   BindBySpecialization,
		cache:    make(map[string]*agents.Descriptor),
	}
}

// SetPromptBinder replaces the agent-to-prompt binding strategy.
func (inv *Invoker) SetPromptBinder(b PromptBinder) {
	if b != nil {
		inv.binder = b
	}
}

// RegisterAgent registers the descriptor and populates the cache. The cache
// keeps its own clone so later caller mutations cannot reach it.
func (inv *Invoker) RegisterAgent(d *agents.Descriptor) error {
	if err := inv.registry.Register(d); err != nil {
		return err
	}
	inv.cacheMu.Lock()
	inv.cache[d.ID] = d.Clone()
	inv.cacheMu.Unlock()
	return nil
}

// GetAgent returns the descriptor for id, consulting the cache first and
// populating it on a miss. Results are cloned like the registry's, so no two
// callers ever share one mutable descriptor.
func (inv *Invoker) GetAgent(id string) (*agents.Descriptor, error) {
	inv.cacheMu.RLock()
	d, ok := inv.cache[id]
	inv.cacheMu.RUnlock()
	if ok {
		return d.Clone(), nil
	}

	d, err := inv.registry.GetAgent(id)
	if err != nil {
		return nil, err
	}
	inv.cacheMu.Lock()
	inv.cache[id] = d
	inv.cacheMu.Unlock()
	return d.Clone(), nil
}

// InvokeAgent resolves the agent and its prompt, compiles the template
// against the invocation context, calls the generation capability, and
// normalizes the result. Agent or prompt absence surfaces as not-found;
// capability failures as ErrExternalCall. No local retry.
func (inv *Invoker) InvokeAgent(ctx context.Context, invocation Invocation) (*Response, error) {
	start := time.Now()

	agent, err := inv.GetAgent(invocation.AgentID)
	if err != nil {
		observeInvocation(invocation, "agent_not_found", time.Since(start))
		return nil, err
	}

	promptID, err := inv.binder(ctx, inv.manager, agent)
	if err != nil {
		observeInvocation(invocation, "prompt_not_found", time.Since(start))
		return nil, err
	}

	template, err := inv.resolveTemplate(ctx, promptID, invocation.PromptVersion)
	if err != nil {
		observeInvocation(invocation, "prompt_not_found", time.Since(start))
		return nil, err
	}

	compiled := compileTemplate(template, invocation)

	log.Debug().
		Str("agent_id", agent.ID).
		Str("request_type", string(invocation.RequestType)).
		Int("prompt_bytes", len(compiled)).
		Msg("Invoking agent")

	raw, err := inv.gen.Generate(ctx, compiled)
	if err != nil {
		observeInvocation(invocation, "external_call_failed", time.Since(start))
		return nil, fmt.Errorf("failed to invoke agent %s: %w", agent.ID, err)
	}

	observeInvocation(invocation, "success", time.Since(start))
	return normalizeResponse(agent.ID, raw), nil
}

// resolveTemplate returns the pinned version's text when version > 0,
// otherwise the currently active version's text.
func (inv *Invoker) resolveTemplate(ctx context.Context, promptID string, version int) (string, error) {
	if version > 0 {
		all, err := inv.manager.GetPromptVersions(ctx, promptID)
		if err != nil {
			return "", err
		}
		for _, v := range all {
			if v.Version == version {
				return v.Template, nil
			}
		}
		return "", fmt.Errorf("prompt %s version %d: %w", promptID, version, prompts.ErrNotFound)
	}

	active, err := inv.manager.GetActivePromptVersion(ctx, promptID)
	if err != nil {
		return "", err
	}
	return active.Template, nil
}

// envelope mirrors the capability's optional structured wrapper.
type envelope struct {
	Content         string                 `json:"content"`
	Response        string                 `json:"response"`
	Confidence      *float64               `json:"confidence"`
	Recommendations []string               `json:"recommendations"`
	NextQuestions   []string               `json:"nextQuestions"`
	Data            map[string]interface{} `json:"structuredData"`
}

// normalizeResponse maps a raw capability result onto the normalized shape.
// Plain-text results keep the raw text as Response with defaults everywhere
// else; structured wrappers contribute whichever fields they carry.
func normalizeResponse(agentID, raw string) *Response {
	out := &Response{
		AgentID:         agentID,
		Response:        raw,
		Confidence:      defaultConfidence,
		Recommendations: []string{},
		NextQuestions:   []string{},
		Data:            map[string]interface{}{},
	}

	extracted := llm.ExtractJSON(raw)
	if extracted == "" {
		return out
	}

	var env envelope
	if err := json.Unmarshal([]byte(extracted), &env); err != nil {
		return out
	}

	switch {
	case env.Content != "":
		out.Response = env.Content
	case env.Response != "":
		out.Response = env.Response
	default:
		out.Response = extracted
	}
	if env.Confidence != nil {
		out.Confidence = *env.Confidence
	}
	if env.Recommendations != nil {
		out.Recommendations = env.Recommendations
	}
	if env.NextQuestions != nil {
		out.NextQuestions = env.NextQuestions
	}
	if env.Data != nil {
		out.Data = env.Data
	}

	// Keep any structured payload available to downstream parsers even when
	// the capability did not use the wrapper shape.
	if len(out.Data) == 0 {
		var generic map[string]interface{}
		if err := json.Unmarshal([]byte(extracted), &generic); err == nil {
			out.Data = generic
		}
	}
	return out
}
