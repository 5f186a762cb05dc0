package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeQualityScore(t *testing.T) {
	assert.Equal(t, 100, ComputeQualityScore(nil))
	assert.Equal(t, 100, ComputeQualityScore([]Issue{}))

	mixed := []Issue{
		{Severity: SeverityCritical},
		{Severity: SeverityMajor},
		{Severity: SeverityMinor},
	}
	assert.Equal(t, 65, ComputeQualityScore(mixed))

	// Deductions clamp at zero rather than going negative.
	var pile []Issue
	for i := 0; i < 6; i++ {
		pile = append(pile, Issue{Severity: SeverityCritical})
	}
	assert.Equal(t, 0, ComputeQualityScore(pile))
}

func TestClassifyQuality_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  QualityIndicator
	}{
		{100, QualityExcellent},
		{90, QualityExcellent},
		{89, QualityGood},
		{75, QualityGood},
		{74, QualityNeedsImprovement},
		{50, QualityNeedsImprovement},
		{49, QualityPoor},
		{0, QualityPoor},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyQuality(c.score), "score %d", c.score)
	}
}
