package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildreview/internal/llm"
)

func TestParseReviewResponse_LinksRecommendationsToIssues(t *testing.T) {
	raw := `{
        "issues": [
            {"category": "electrical", "severity": "critical", "title": "Missing electrical work", "description": "No electrical scope at all", "location": "section 3", "impact": "unsafe installation"}
        ],
        "recommendations": [
            {"issueTitle": "Missing electrical work", "type": "addition", "title": "Add electrical scope", "description": "Specify rewiring and certification", "reasoning": "Part P compliance", "priority": "high"}
        ],
        "missingElements": ["electrical certification"],
        "regulatoryIssues": []
    }`

	issues, recs, missing, regulatory, err := parseReviewResponse(raw)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Len(t, recs, 1)

	assert.NotEmpty(t, issues[0].ID)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
	assert.Equal(t, issues[0].ID, recs[0].IssueID)
	assert.Equal(t, []string{"electrical certification"}, missing)
	assert.Equal(t, []string{}, regulatory)
}

func TestParseReviewResponse_AbsentListsDefaultEmpty(t *testing.T) {
	issues, recs, missing, regulatory, err := parseReviewResponse(`{"issues": []}`)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Empty(t, recs)
	assert.Equal(t, []string{}, missing)
	assert.Equal(t, []string{}, regulatory)
}

func TestParseReviewResponse_RepairsSloppyJSON(t *testing.T) {
	// Trailing comma, the most common model output defect.
	raw := "```json\n{\"issues\": [{\"severity\": \"minor\", \"title\": \"Vague timeline\",}]}\n```"
	issues, _, _, _, err := parseReviewResponse(raw)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityMinor, issues[0].Severity)
}

func TestParseReviewResponse_UnknownSeverityFails(t *testing.T) {
	_, _, _, _, err := parseReviewResponse(`{"issues": [{"severity": "catastrophic", "title": "X"}]}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrParse)
}

func TestParseReviewResponse_ProseFails(t *testing.T) {
	_, _, _, _, err := parseReviewResponse("The document looks broadly fine to me.")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrParse)
}
