package agents

// Selection is the set of agents required for a project type.
type Selection struct {
	Orchestrator *Descriptor   `json:"orchestrator,omitempty"`
	Specialists  []*Descriptor `json:"specialists"`
}

// Selector resolves which agents apply to a project, built purely from
// registry queries.
type Selector struct {
	registry *Registry
}

// NewSelector creates a selector over the given registry.
func NewSelector(registry *Registry) *Selector {
	return &Selector{registry: registry}
}

// GetRequiredAgents returns the orchestrator and specialists registered for
// the project type. It never fails; unknown types produce an empty selection.
func (s *Selector) GetRequiredAgents(t ProjectType) Selection {
	return Selection{
		Orchestrator: s.registry.GetOrchestratorAgent(t),
		Specialists:  s.registry.GetSpecialistAgents(t),
	}
}

// SelectAgentsByDependencies maps each specialization name to its registered
// agents, preserving input order. This is a direct lookup, not a dependency
// traversal: an agent's own dependency list is never followed, so cyclic
// declarations cannot loop here. Unknown names are skipped.
func (s *Selector) SelectAgentsByDependencies(names []string) []*Descriptor {
	out := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, s.registry.GetAgentsBySpecialization(name)...)
	}
	return out
}

// ValidateAgentCompatibility reports whether every agent in the set supports
// the given project type.
func (s *Selector) ValidateAgentCompatibility(set []*Descriptor, t ProjectType) bool {
	for _, d := range set {
		if d == nil || !d.SupportsProjectType(t) {
			return false
		}
	}
	return true
}
