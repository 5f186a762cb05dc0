package review

import "github.com/buildreview/internal/agents"

// Reviewer specializations. Conversion projects share a structural reviewer;
// everything unmapped falls through to the generalist.
const (
	specStructuralConversion = "structural-conversion"
	specKitchen              = "kitchen"
	specGeneral              = "general"
	specImprovement          = "sow-improvement"
)

// reviewerSpecializationFor maps a project type to the specialization of the
// agent that reviews its scope of work. The default case is compiler-visible:
// adding a project type without a mapping lands on the generalist, never on a
// missing key.
func reviewerSpecializationFor(t agents.ProjectType) string {
	switch t {
	case agents.ProjectLoftConversion, agents.ProjectBasementConversion, agents.ProjectGarageConversion:
		return specStructuralConversion
	case agents.ProjectKitchenFull, agents.ProjectKitchenRefurb:
		return specKitchen
	default:
		return specGeneral
	}
}

// focusChecklist returns the review focus areas for a project type.
func focusChecklist(t agents.ProjectType) []string {
	switch t {
	case agents.ProjectLoftConversion, agents.ProjectBasementConversion, agents.ProjectGarageConversion:
		return []string{
			"structural calculations",
			"building regulations",
			"fire safety",
			"insulation standards",
			"staircase regulations",
			"headroom",
		}
	case agents.ProjectKitchenFull, agents.ProjectKitchenRefurb:
		return []string{
			"electrical safety",
			"plumbing compliance",
			"ventilation",
			"gas safety",
		}
	default:
		return []string{
			"regulations",
			"health & safety",
			"material specifications",
			"sequencing",
			"cost accuracy",
		}
	}
}
