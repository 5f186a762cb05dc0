package invoker

import (
	"strings"

	"github.com/buildreview/internal/prompts"
)

// contextFieldValue resolves the well-known context placeholders. These take
// precedence over user responses and ad hoc parameters.
func contextFieldValue(c Context, name string) (string, bool) {
	switch name {
	case "project_type", "projectType":
		if c.ProjectType != "" {
			return c.ProjectType, true
		}
	case "project_id", "projectId":
		if c.ProjectID != "" {
			return c.ProjectID, true
		}
	case "property.address":
		if c.Property.Address != "" {
			return c.Property.Address, true
		}
	case "property.city":
		if c.Property.City != "" {
			return c.Property.City, true
		}
	case "property.postcode":
		if c.Property.Postcode != "" {
			return c.Property.Postcode, true
		}
	case "property.type":
		if c.Property.PropertyType != "" {
			return c.Property.PropertyType, true
		}
	case "property.year_built":
		if c.Property.YearBuilt != "" {
			return c.Property.YearBuilt, true
		}
	}
	return "", false
}

// compileTemplate substitutes placeholders with this precedence: context
// fields, then flattened user-response pairs, then ad hoc invocation
// parameters. Unresolved placeholders stay verbatim since downstream
// consumers may supply the remaining context.
func compileTemplate(template string, inv Invocation) string {
	compiled := prompts.Substitute(template, func(name string) (string, bool) {
		if val, ok := contextFieldValue(inv.Context, name); ok {
			return val, true
		}
		if val, ok := inv.Context.UserResponses[name]; ok {
			return val, true
		}
		if val, ok := inv.Parameters[name]; ok {
			return val, true
		}
		return "", false
	})

	if suffix := instructionSuffix(inv.RequestType); suffix != "" {
		compiled = compiled + "\n\n" + suffix
	}
	return compiled
}

// instructionSuffix returns the request-type directive appended after the
// compiled template body.
func instructionSuffix(rt RequestType) string {
	switch rt {
	case RequestGenerateQuestions:
		return strings.TrimSpace(`
Respond with a JSON object containing a "questions" array. Each entry must
have "id", "question", and "category" fields. Do not include any text outside
the JSON object.`)
	case RequestGenerateSoW:
		return strings.TrimSpace(`
Respond with a JSON object describing the scope of work: a "title", a
"sections" array of work packages with "name", "description", and "materials"
fields, and an "estimatedDuration". Do not include any text outside the JSON
object.`)
	case RequestReviewSoW:
		return strings.TrimSpace(`
Respond with a JSON object containing: an "issues" array where each entry has
"category", "severity" (one of "critical", "major", "minor"), "title",
"description", "location", and "impact"; a "recommendations" array where each
entry has "issueTitle", "type", "title", "description", "reasoning", and
"priority"; a "missingElements" array of strings; and a "regulatoryIssues"
array of strings. Do not include any text outside the JSON object.`)
	case RequestImproveSoW:
		return strings.TrimSpace(`
Respond with a JSON object containing the improved document fields. Only
include fields you changed. Do not include any text outside the JSON object.`)
	default:
		return ""
	}
}
