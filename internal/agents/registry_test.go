package agents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func electricalAgent() *Descriptor {
	return &Descriptor{
		ID:             "agent-electrical",
		Name:           "Electrical Specialist",
		Specialization: "electrical",
		ProjectTypes:   []ProjectType{ProjectLoftConversion, ProjectKitchenFull},
		KnowledgeBase: KnowledgeBase{
			Regulations: []string{"BS 7671", "Part P"},
		},
	}
}

func TestRegistry_RegisterAndGetAgent_RoundTrip(t *testing.T) {
	r := NewRegistry()
	original := electricalAgent()
	require.NoError(t, r.Register(original))

	got, err := r.GetAgent("agent-electrical")
	require.NoError(t, err)
	assert.Equal(t, original, got)

	// The registry must hold its own copy, not the caller's pointer.
	original.Name = "mutated"
	got2, err := r.GetAgent("agent-electrical")
	require.NoError(t, err)
	assert.Equal(t, "Electrical Specialist", got2.Name)
}

func TestRegistry_Register_DuplicateID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(electricalAgent()))

	err := r.Register(electricalAgent())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateAgent)
}

func TestRegistry_Register_RequiresProjectTypes(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&Descriptor{ID: "empty", Specialization: "none"})
	assert.Error(t, err)
}

func TestRegistry_GetAgent_NotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetAgent("missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRegistry_GetAgentsByProjectType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(electricalAgent()))
	require.NoError(t, r.Register(&Descriptor{
		ID:             "agent-plumbing",
		Specialization: "plumbing",
		ProjectTypes:   []ProjectType{ProjectKitchenFull, ProjectBathroom},
	}))

	kitchen := r.GetAgentsByProjectType(ProjectKitchenFull)
	require.Len(t, kitchen, 2)

	loft := r.GetAgentsByProjectType(ProjectLoftConversion)
	require.Len(t, loft, 1)
	assert.Equal(t, "agent-electrical", loft[0].ID)

	assert.Empty(t, r.GetAgentsByProjectType(ProjectExtension))
}

func TestRegistry_GetOrchestratorAgent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(electricalAgent()))
	require.NoError(t, r.Register(&Descriptor{
		ID:             "agent-loft-orchestrator",
		Specialization: "loft-orchestrator",
		ProjectTypes:   []ProjectType{ProjectLoftConversion},
		IsOrchestrator: true,
		Dependencies:   []string{"electrical", "plumbing"},
	}))

	orch := r.GetOrchestratorAgent(ProjectLoftConversion)
	require.NotNil(t, orch)
	assert.True(t, orch.IsOrchestrator)
	assert.True(t, orch.SupportsProjectType(ProjectLoftConversion))

	assert.Nil(t, r.GetOrchestratorAgent(ProjectBathroom))
}

func TestRegistry_GetOrchestratorAgent_FirstRegisteredWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{
		ID: "orch-a", Specialization: "a",
		ProjectTypes:   []ProjectType{ProjectExtension},
		IsOrchestrator: true,
	}))
	require.NoError(t, r.Register(&Descriptor{
		ID: "orch-b", Specialization: "b",
		ProjectTypes:   []ProjectType{ProjectExtension},
		IsOrchestrator: true,
	}))

	orch := r.GetOrchestratorAgent(ProjectExtension)
	require.NotNil(t, orch)
	assert.Equal(t, "orch-a", orch.ID)
}

func TestRegistry_GetSpecialistAgents_ExcludesOrchestrator(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{
		ID: "orch", Specialization: "loft-orchestrator",
		ProjectTypes:   []ProjectType{ProjectLoftConversion},
		IsOrchestrator: true,
	}))
	require.NoError(t, r.Register(electricalAgent()))

	specialists := r.GetSpecialistAgents(ProjectLoftConversion)
	require.Len(t, specialists, 1)
	assert.Equal(t, "agent-electrical", specialists[0].ID)
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(electricalAgent()))
	r.Reset()

	assert.Empty(t, r.GetAllAgents())
	// A second bulk load of the same id must succeed after reset.
	assert.NoError(t, r.Register(electricalAgent()))
}

func TestRegistry_LoadCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.json")
	catalogue := `[
        {"id": "agent-electrical", "specialization": "electrical", "project_types": ["loft_conversion"]},
        {"id": "agent-plumbing", "specialization": "plumbing", "project_types": ["bathroom"]}
    ]`
	require.NoError(t, os.WriteFile(path, []byte(catalogue), 0644))

	r := NewRegistry()
	n, err := r.LoadCatalogue(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, r.GetAllAgents(), 2)
}

func TestRegistry_LoadCatalogue_MissingFile(t *testing.T) {
	r := NewRegistry()
	_, err := r.LoadCatalogue(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Empty(t, r.GetAllAgents())
}
