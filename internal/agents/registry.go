package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrAgentNotFound  = errors.New("agent not found")
	ErrDuplicateAgent = errors.New("agent already registered")
)

// Registry is the in-memory agent catalogue. Registration happens during a
// serialized bulk-load phase; after that the catalogue is read-mostly and
// safe for concurrent readers.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*Descriptor
	order []string // registration order, for deterministic listing
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Descriptor),
	}
}

// Register inserts a descriptor into the catalogue. It fails with
// ErrDuplicateAgent when the id is already present.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.ID == "" {
		return errors.New("agents: Register requires a descriptor with an ID")
	}
	if len(d.ProjectTypes) == 0 {
		return fmt.Errorf("agents: agent %s declares no project types", d.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID]; exists {
		return fmt.Errorf("agents: %w: %s", ErrDuplicateAgent, d.ID)
	}
	r.byID[d.ID] = cloneDescriptor(d)
	r.order = append(r.order, d.ID)

	log.Debug().
		Str("agent_id", d.ID).
		Str("specialization", d.Specialization).
		Bool("orchestrator", d.IsOrchestrator).
		Msg("Registered agent")
	return nil
}

// GetAgent returns the descriptor for id, or ErrAgentNotFound. Callers that
// treat absence as a normal case should check with errors.Is.
func (r *Registry) GetAgent(id string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("agents: %w: %s", ErrAgentNotFound, id)
	}
	return cloneDescriptor(d), nil
}

// GetAgentsByProjectType returns every registered agent whose project types
// include t. Unknown types yield an empty slice.
func (r *Registry) GetAgentsByProjectType(t ProjectType) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0)
	for _, id := range r.order {
		if d := r.byID[id]; d.SupportsProjectType(t) {
			out = append(out, cloneDescriptor(d))
		}
	}
	return out
}

// GetOrchestratorAgent returns the orchestrator registered for t, or nil when
// none exists. When more than one orchestrator matches, the first registered
// wins and a warning is logged.
func (r *Registry) GetOrchestratorAgent(t ProjectType) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Descriptor
	for _, id := range r.order {
		d := r.byID[id]
		if !d.IsOrchestrator || !d.SupportsProjectType(t) {
			continue
		}
		if found != nil {
			log.Warn().
				Str("project_type", string(t)).
				Str("kept", found.ID).
				Str("ignored", d.ID).
				Msg("Multiple orchestrators registered for project type")
			continue
		}
		found = d
	}
	return cloneDescriptor(found)
}

// GetSpecialistAgents returns the non-orchestrator agents registered for t.
func (r *Registry) GetSpecialistAgents(t ProjectType) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0)
	for _, id := range r.order {
		if d := r.byID[id]; !d.IsOrchestrator && d.SupportsProjectType(t) {
			out = append(out, cloneDescriptor(d))
		}
	}
	return out
}

// GetAgentsBySpecialization returns every agent declaring the given
// specialization, in registration order.
func (r *Registry) GetAgentsBySpecialization(spec string) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0)
	for _, id := range r.order {
		if d := r.byID[id]; d.Specialization == spec {
			out = append(out, cloneDescriptor(d))
		}
	}
	return out
}

// GetAllAgents returns the full catalogue in registration order.
func (r *Registry) GetAllAgents() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneDescriptor(r.byID[id]))
	}
	return out
}

// Reset clears all registry state. Used to reinitialize between bulk-load runs.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[string]*Descriptor)
	r.order = nil
	log.Debug().Msg("Agent registry reset")
}

// LoadCatalogue reads a JSON array of descriptors from path and registers each
// one. The load is serialized by Register's lock; callers wanting a clean
// slate should Reset first.
func (r *Registry) LoadCatalogue(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read agent catalogue: %w", err)
	}

	var descriptors []*Descriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return 0, fmt.Errorf("failed to parse agent catalogue: %w", err)
	}

	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return 0, err
		}
	}

	log.Info().Int("agents", len(descriptors)).Str("path", path).Msg("Loaded agent catalogue")
	return len(descriptors), nil
}
