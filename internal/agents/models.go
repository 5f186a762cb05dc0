package agents

// ProjectType identifies a category of home-improvement project.
type ProjectType string

const (
	ProjectLoftConversion     ProjectType = "loft_conversion"
	ProjectBasementConversion ProjectType = "basement_conversion"
	ProjectGarageConversion   ProjectType = "garage_conversion"
	ProjectKitchenFull        ProjectType = "kitchen_full"
	ProjectKitchenRefurb      ProjectType = "kitchen_refurb"
	ProjectExtension          ProjectType = "extension"
	ProjectBathroom           ProjectType = "bathroom"
	ProjectGeneral            ProjectType = "general"
)

// KnowledgeBase carries the domain reference material an agent can draw on
// when its prompt is compiled.
type KnowledgeBase struct {
	Facts         []string `json:"facts"`
	Regulations   []string `json:"regulations"`
	BestPractices []string `json:"best_practices"`
}

// Descriptor describes a single agent: its specialization, the project types
// it can serve, and the specializations it depends on. Orchestrator agents
// coordinate the specialists listed in Dependencies.
type Descriptor struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Specialization string        `json:"specialization"`
	ProjectTypes   []ProjectType `json:"project_types"`
	IsOrchestrator bool          `json:"is_orchestrator"`
	Dependencies   []string      `json:"dependencies"`
	KnowledgeBase  KnowledgeBase `json:"knowledge_base"`
}

// SupportsProjectType reports whether the descriptor lists t among its
// supported project types.
func (d *Descriptor) SupportsProjectType(t ProjectType) bool {
	for _, pt := range d.ProjectTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the descriptor. Callers holding caches of
// descriptors must clone on the way in and out, as the registry does, so no
// two holders share mutable state.
func (d *Descriptor) Clone() *Descriptor {
	return cloneDescriptor(d)
}

func cloneDescriptor(d *Descriptor) *Descriptor {
	if d == nil {
		return nil
	}
	cp := *d
	if d.ProjectTypes != nil {
		cp.ProjectTypes = append([]ProjectType(nil), d.ProjectTypes...)
	}
	if d.Dependencies != nil {
		cp.Dependencies = append([]string(nil), d.Dependencies...)
	}
	if d.KnowledgeBase.Facts != nil {
		cp.KnowledgeBase.Facts = append([]string(nil), d.KnowledgeBase.Facts...)
	}
	if d.KnowledgeBase.Regulations != nil {
		cp.KnowledgeBase.Regulations = append([]string(nil), d.KnowledgeBase.Regulations...)
	}
	if d.KnowledgeBase.BestPractices != nil {
		cp.KnowledgeBase.BestPractices = append([]string(nil), d.KnowledgeBase.BestPractices...)
	}
	return &cp
}
