package review

import "time"

// Severity grades a review issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// QualityIndicator is the deterministic banding of an overall score.
type QualityIndicator string

const (
	QualityExcellent        QualityIndicator = "excellent"
	QualityGood             QualityIndicator = "good"
	QualityNeedsImprovement QualityIndicator = "needs_improvement"
	QualityPoor             QualityIndicator = "poor"
)

// Issue is one problem the reviewer found in a scope-of-work document.
type Issue struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Impact      string   `json:"impact"`
}

// Recommendation proposes a fix for an issue.
type Recommendation struct {
	ID          string `json:"id"`
	IssueID     string `json:"issue_id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reasoning   string `json:"reasoning"`
	Priority    string `json:"priority"`
}

// Analysis is the stored outcome of one review pass over a project's SoW.
// A subsequent review overwrites it; there is no built-in history.
type Analysis struct {
	ProjectID        string           `json:"project_id"`
	OverallScore     int              `json:"overall_score"`
	Issues           []Issue          `json:"issues"`
	Recommendations  []Recommendation `json:"recommendations"`
	MissingElements  []string         `json:"missing_elements"`
	RegulatoryIssues []string         `json:"regulatory_issues"`
	QualityIndicator QualityIndicator `json:"quality_indicator"`
	ReviewAgentType  string           `json:"review_agent_type"`
	ReviewedAt       time.Time        `json:"reviewed_at"`
}

// GateResult is the builder-invitation gate decision. It is always produced,
// never an error: any internal failure closes the gate.
type GateResult struct {
	CanInviteBuilders bool     `json:"can_invite_builders"`
	QualityScore      int      `json:"quality_score"`
	CriticalIssues    []string `json:"critical_issues"`
	Reason            string   `json:"reason,omitempty"`
}

// SoWDocument is the opaque structured work-specification document supplied
// by the downstream integration layer.
type SoWDocument map[string]interface{}

func cloneAnalysis(a *Analysis) *Analysis {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Issues != nil {
		cp.Issues = append([]Issue(nil), a.Issues...)
	}
	if a.Recommendations != nil {
		cp.Recommendations = append([]Recommendation(nil), a.Recommendations...)
	}
	if a.MissingElements != nil {
		cp.MissingElements = append([]string(nil), a.MissingElements...)
	}
	if a.RegulatoryIssues != nil {
		cp.RegulatoryIssues = append([]string(nil), a.RegulatoryIssues...)
	}
	return &cp
}
