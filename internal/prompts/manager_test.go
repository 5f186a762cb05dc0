package prompts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGen echoes scripted responses per prompt substring, so regression runs
// are deterministic.
type fakeGen struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestManager(gen *fakeGen) *Manager {
	if gen == nil {
		gen = &fakeGen{}
	}
	return NewManager(NewInMemoryStore(), gen)
}

func sowDraft() Draft {
	return Draft{
		Name:        "Loft SoW Generator",
		Description: "Generates a scope of work for loft conversions",
		Category:    "sow_generation",
		Template:    "Produce a scope of work for a {{ project_type }} at {{ property.address }}.",
		Variables:   []string{"project_type", "property.address"},
		CreatedBy:   "system",
	}
}

func TestManager_CreatePrompt_CreatesActiveVersionOne(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, 1, created.ActiveVersion)

	active, err := m.GetActivePromptVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active.Version)
	assert.True(t, active.IsActive)
	assert.Equal(t, created.Template, active.Template)
}

func TestManager_UpdatePrompt_TextChangeCreatesExclusiveActiveVersion(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	newText := "Revised template for {{ project_type }}."
	updated, err := m.UpdatePrompt(ctx, created.ID, Update{Template: &newText}, "tighten wording", "reviewer-team")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, 2, updated.ActiveVersion)
	assert.Equal(t, newText, updated.Template)

	versions, err := m.GetPromptVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	// Most-recent-first.
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, "tighten wording", versions[0].Changelog)

	activeCount := 0
	for _, v := range versions {
		if v.IsActive {
			activeCount++
			assert.Equal(t, 2, v.Version)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestManager_UpdatePrompt_MetadataOnlyBumpsCounterWithoutNewVersion(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	name := "Renamed"
	updated, err := m.UpdatePrompt(ctx, created.ID, Update{Name: &name}, "", "ops")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	versions, err := m.GetPromptVersions(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestManager_ActivatePromptVersion_Rollback(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	v2 := "Second revision."
	_, err = m.UpdatePrompt(ctx, created.ID, Update{Template: &v2}, "rev 2", "ops")
	require.NoError(t, err)

	require.NoError(t, m.ActivatePromptVersion(ctx, created.ID, 1))

	active, err := m.GetActivePromptVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active.Version)

	versions, err := m.GetPromptVersions(ctx, created.ID)
	require.NoError(t, err)
	activeCount := 0
	for _, v := range versions {
		if v.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	// The parent record's pointer and text follow the rollback.
	tpl, err := m.GetPrompt(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.ActiveVersion)
	assert.Equal(t, sowDraft().Template, tpl.Template)
}

func TestManager_ActivatePromptVersion_UnknownVersion(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	err = m.ActivatePromptVersion(ctx, created.ID, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RecordPromptMetrics_UpsertIncrementsUsage(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	rate := 0.9
	first, err := m.RecordPromptMetrics(ctx, created.ID, 1, MetricsUpdate{SuccessRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, 1, first.UsageCount)
	assert.Equal(t, 0.9, first.SuccessRate)

	sat := 4.5
	second, err := m.RecordPromptMetrics(ctx, created.ID, 1, MetricsUpdate{UserSatisfactionScore: &sat})
	require.NoError(t, err)
	assert.Equal(t, 2, second.UsageCount)
	assert.Equal(t, 0.9, second.SuccessRate, "unspecified fields merge over existing values")
	assert.Equal(t, 4.5, second.UserSatisfactionScore)
}

func TestManager_RunPromptTests_ScoresAndPersists(t *testing.T) {
	gen := &fakeGen{response: "A detailed scope of work including staircase regulations."}
	m := newTestManager(gen)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	run, err := m.RunPromptTests(ctx, created.ID, 1, []TestCase{
		{Name: "mentions staircase", Variables: map[string]string{"project_type": "loft_conversion"}, Expected: "staircase"},
		{Name: "mentions plumbing", Variables: map[string]string{"project_type": "loft_conversion"}, Expected: "plumbing"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, run.OverallScore)
	require.Len(t, run.Results, 2)
	assert.True(t, run.Results[0].Passed)
	assert.False(t, run.Results[1].Passed)

	// Variables were substituted into the compiled prompt.
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "loft_conversion")
	// Unresolved placeholders stay verbatim.
	assert.Contains(t, gen.prompts[0], "{{ property.address }}")

	runs, err := m.store.GetTestRuns(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestManager_RunPromptTests_GenerationFailureMarksCaseFailed(t *testing.T) {
	gen := &fakeGen{err: errors.New("capability unreachable")}
	m := newTestManager(gen)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	run, err := m.RunPromptTests(ctx, created.ID, 1, []TestCase{{Name: "any", Expected: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, run.OverallScore)
	assert.NotEmpty(t, run.Results[0].Error)
}

func TestManager_DeletePrompt_Cascades(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	created, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)

	require.NoError(t, m.DeletePrompt(ctx, created.ID))

	_, err = m.GetPrompt(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	versions, err := m.GetPromptVersions(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestManager_DeletePrompt_Unknown(t *testing.T) {
	m := newTestManager(nil)
	err := m.DeletePrompt(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_SearchPrompts_CaseInsensitiveSubstring(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	_, err := m.CreatePrompt(ctx, sowDraft())
	require.NoError(t, err)
	_, err = m.CreatePrompt(ctx, Draft{
		Name:        "Kitchen Reviewer",
		Description: "Reviews kitchen scope documents",
		Category:    "sow_review",
		Template:    "Review {{ sow_document }}.",
	})
	require.NoError(t, err)

	byName, err := m.SearchPrompts(ctx, "LOFT")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Loft SoW Generator", byName[0].Name)

	byDescription, err := m.SearchPrompts(ctx, "kitchen scope")
	require.NoError(t, err)
	require.Len(t, byDescription, 1)

	none, err := m.SearchPrompts(ctx, "bathroom")
	require.NoError(t, err)
	assert.Empty(t, none)
}
