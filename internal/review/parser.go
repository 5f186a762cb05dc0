package review

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/buildreview/internal/llm"
)

// reviewPayload mirrors the structured shape the review instruction suffix
// demands from the generation capability. The capability supplies no stable
// ids, so fresh ones are assigned during parsing.
type reviewPayload struct {
	Issues []struct {
		Category    string `json:"category"`
		Severity    string `json:"severity"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Impact      string `json:"impact"`
	} `json:"issues"`
	Recommendations []struct {
		IssueTitle  string `json:"issueTitle"`
		Type        string `json:"type"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Reasoning   string `json:"reasoning"`
		Priority    string `json:"priority"`
	} `json:"recommendations"`
	MissingElements  []string `json:"missingElements"`
	RegulatoryIssues []string `json:"regulatoryIssues"`
}

// parseReviewResponse validates and converts the capability's raw review
// output. Structured output was requested, so an irreparable payload fails
// fast with ErrParse rather than silently defaulting the whole document.
// Absent optional lists still default to empty.
func parseReviewResponse(raw string) ([]Issue, []Recommendation, []string, []string, error) {
	var payload reviewPayload
	if err := llm.ParseStructured(raw, &payload); err != nil {
		return nil, nil, nil, nil, err
	}

	issues := make([]Issue, 0, len(payload.Issues))
	titleToID := make(map[string]string, len(payload.Issues))
	for _, in := range payload.Issues {
		sev, err := parseSeverity(in.Severity)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		issue := Issue{
			ID:          uuid.NewString(),
			Category:    in.Category,
			Severity:    sev,
			Title:       in.Title,
			Description: in.Description,
			Location:    in.Location,
			Impact:      in.Impact,
		}
		issues = append(issues, issue)
		titleToID[in.Title] = issue.ID
	}

	recs := make([]Recommendation, 0, len(payload.Recommendations))
	for _, in := range payload.Recommendations {
		recs = append(recs, Recommendation{
			ID:          uuid.NewString(),
			IssueID:     titleToID[in.IssueTitle],
			Type:        in.Type,
			Title:       in.Title,
			Description: in.Description,
			Reasoning:   in.Reasoning,
			Priority:    in.Priority,
		})
	}

	missing := payload.MissingElements
	if missing == nil {
		missing = []string{}
	}
	regulatory := payload.RegulatoryIssues
	if regulatory == nil {
		regulatory = []string{}
	}
	return issues, recs, missing, regulatory, nil
}

func parseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", llm.ErrParse, s)
	}
}
