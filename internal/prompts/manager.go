package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/buildreview/internal/llm"
)

// Evaluator decides whether a generated output satisfies a regression case
// expectation. Pluggable so callers can swap in stricter checks.
type Evaluator func(output, expected string) bool

// ContainsEvaluator passes a case when the expectation appears in the output,
// case-insensitively.
func ContainsEvaluator(output, expected string) bool {
	return strings.Contains(strings.ToLower(output), strings.ToLower(expected))
}

// Manager is the versioning engine for instruction templates: create, update,
// version, activate, rollback, metrics, and regression tests.
type Manager struct {
	store    Store
	gen      llm.Client
	evaluate Evaluator
}

// NewManager creates a manager over the given store. The generation client is
// only needed by RunPromptTests and may be nil otherwise.
func NewManager(store Store, gen llm.Client) *Manager {
	return &Manager{store: store, gen: gen, evaluate: ContainsEvaluator}
}

// SetEvaluator replaces the regression-test evaluator.
func (m *Manager) SetEvaluator(e Evaluator) {
	if e != nil {
		m.evaluate = e
	}
}

// CreatePrompt assigns id and timestamps, persists the template, and creates
// version 1 as the active version.
func (m *Manager) CreatePrompt(ctx context.Context, draft Draft) (*Template, error) {
	now := time.Now().UTC()
	t := &Template{
		ID:            uuid.NewString(),
		Name:          draft.Name,
		Description:   draft.Description,
		Category:      draft.Category,
		Template:      draft.Template,
		Variables:     append([]string(nil), draft.Variables...),
		Version:       1,
		ActiveVersion: 1,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.store.CreateTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}

	v := &Version{
		ID:        uuid.NewString(),
		PromptID:  t.ID,
		Version:   1,
		Template:  draft.Template,
		Changelog: "Initial version",
		IsActive:  true,
		CreatedAt: now,
		CreatedBy: draft.CreatedBy,
	}
	if err := m.store.CreateVersion(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create initial version: %w", err)
	}

	log.Info().
		Str("prompt_id", t.ID).
		Str("name", t.Name).
		Str("category", t.Category).
		Msg("Created prompt")
	return cloneTemplate(t), nil
}

// GetPrompt returns the template record for id.
func (m *Manager) GetPrompt(ctx context.Context, id string) (*Template, error) {
	return m.store.GetTemplate(ctx, id)
}

// UpdatePrompt applies updates to the template, bumping its version counter.
// When the template text changes, a new version row is created and exclusively
// activated: all prior versions are deactivated first.
func (m *Manager) UpdatePrompt(ctx context.Context, id string, updates Update, changelog, author string) (*Template, error) {
	t, err := m.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}

	if updates.Name != nil {
		t.Name = *updates.Name
	}
	if updates.Description != nil {
		t.Description = *updates.Description
	}
	if updates.Category != nil {
		t.Category = *updates.Category
	}
	if updates.Variables != nil {
		t.Variables = append([]string(nil), updates.Variables...)
	}

	textChanged := updates.Template != nil && *updates.Template != t.Template
	t.Version++
	t.UpdatedAt = time.Now().UTC()

	if textChanged {
		t.Template = *updates.Template
		v := &Version{
			ID:        uuid.NewString(),
			PromptID:  t.ID,
			Version:   t.Version,
			Template:  *updates.Template,
			Changelog: changelog,
			CreatedAt: t.UpdatedAt,
			CreatedBy: author,
		}
		if err := m.store.CreateVersion(ctx, v); err != nil {
			return nil, fmt.Errorf("failed to create version %d: %w", t.Version, err)
		}
	}

	if err := m.store.UpdateTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}

	if textChanged {
		// Exclusive activation: flips every prior version off and moves the
		// current-version pointer in one step.
		if err := m.store.ActivateVersion(ctx, t.ID, t.Version); err != nil {
			return nil, fmt.Errorf("failed to activate version %d: %w", t.Version, err)
		}
		t.ActiveVersion = t.Version
		log.Info().
			Str("prompt_id", t.ID).
			Int("version", t.Version).
			Str("author", author).
			Msg("Created and activated new prompt version")
	}

	return cloneTemplate(t), nil
}

// GetPromptVersions returns all versions for a prompt, most-recent-first.
func (m *Manager) GetPromptVersions(ctx context.Context, id string) ([]*Version, error) {
	return m.store.GetVersions(ctx, id)
}

// GetActivePromptVersion returns the single active version for a prompt, or
// ErrNoActiveVersion.
func (m *Manager) GetActivePromptVersion(ctx context.Context, id string) (*Version, error) {
	return m.store.GetActiveVersion(ctx, id)
}

// ActivatePromptVersion deactivates all versions for the prompt, then
// activates the requested one. This is the rollback path.
func (m *Manager) ActivatePromptVersion(ctx context.Context, id string, version int) error {
	if err := m.store.ActivateVersion(ctx, id, version); err != nil {
		return fmt.Errorf("failed to activate version %d: %w", version, err)
	}
	log.Info().Str("prompt_id", id).Int("version", version).Msg("Activated prompt version")
	return nil
}

// RecordPromptMetrics upserts a metrics record for (id, version): non-nil
// fields of partial are merged in and UsageCount increments. Missing records
// are created with UsageCount=1.
func (m *Manager) RecordPromptMetrics(ctx context.Context, id string, version int, partial MetricsUpdate) (*Metrics, error) {
	existing, err := m.store.GetMetrics(ctx, id, version)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to record metrics: %w", err)
		}
		existing = &Metrics{PromptID: id, Version: version}
	}

	if partial.AverageResponseTime != nil {
		existing.AverageResponseTime = *partial.AverageResponseTime
	}
	if partial.SuccessRate != nil {
		existing.SuccessRate = *partial.SuccessRate
	}
	if partial.UserSatisfactionScore != nil {
		existing.UserSatisfactionScore = *partial.UserSatisfactionScore
	}
	if partial.ErrorRate != nil {
		existing.ErrorRate = *partial.ErrorRate
	}
	existing.UsageCount++
	existing.LastEvaluated = time.Now().UTC()

	if err := m.store.PutMetrics(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to record metrics: %w", err)
	}
	cp := *existing
	return &cp, nil
}

// GetPromptMetrics returns the stored metrics for (id, version).
func (m *Manager) GetPromptMetrics(ctx context.Context, id string, version int) (*Metrics, error) {
	return m.store.GetMetrics(ctx, id, version)
}

// RunPromptTests executes each case against the generation capability, marks
// pass/fail via the evaluator, computes overallScore = passed/total, and
// persists the snapshot. This is the regression harness guarding prompt edits.
func (m *Manager) RunPromptTests(ctx context.Context, id string, version int, cases []TestCase) (*TestRun, error) {
	if m.gen == nil {
		return nil, errors.New("prompts: RunPromptTests requires a generation client")
	}
	v, err := m.store.GetVersion(ctx, id, version)
	if err != nil {
		return nil, fmt.Errorf("failed to run prompt tests: %w", err)
	}

	run := &TestRun{
		ID:       uuid.NewString(),
		PromptID: id,
		Version:  version,
		Results:  make([]TestCaseResult, 0, len(cases)),
		RanAt:    time.Now().UTC(),
	}

	passed := 0
	for _, tc := range cases {
		compiled := Substitute(v.Template, func(name string) (string, bool) {
			val, ok := tc.Variables[name]
			return val, ok
		})

		result := TestCaseResult{Name: tc.Name, Expected: tc.Expected}
		output, err := m.gen.Generate(ctx, compiled)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Output = output
			result.Passed = m.evaluate(output, tc.Expected)
		}
		if result.Passed {
			passed++
		}
		run.Results = append(run.Results, result)
	}

	if len(cases) > 0 {
		run.OverallScore = float64(passed) / float64(len(cases))
	}

	if err := m.store.SaveTestRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save test run: %w", err)
	}

	log.Info().
		Str("prompt_id", id).
		Int("version", version).
		Int("passed", passed).
		Int("total", len(cases)).
		Msg("Prompt regression run complete")
	return run, nil
}

// DeletePrompt cascades: all versions are deleted before the prompt record.
func (m *Manager) DeletePrompt(ctx context.Context, id string) error {
	if _, err := m.store.GetTemplate(ctx, id); err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	if err := m.store.DeleteVersionsFor(ctx, id); err != nil {
		return fmt.Errorf("failed to delete prompt versions: %w", err)
	}
	if err := m.store.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	log.Info().Str("prompt_id", id).Msg("Deleted prompt")
	return nil
}

// ListPrompts returns every template record.
func (m *Manager) ListPrompts(ctx context.Context) ([]*Template, error) {
	return m.store.ListTemplates(ctx)
}

// SearchPrompts does a case-insensitive substring match over name and
// description across all prompts. Full scan; acceptable at catalogue scale.
func (m *Manager) SearchPrompts(ctx context.Context, query string) ([]*Template, error) {
	all, err := m.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search prompts: %w", err)
	}
	q := strings.ToLower(query)
	out := make([]*Template, 0)
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out, nil
}
