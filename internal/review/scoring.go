package review

// Severity deductions from a perfect score of 100.
const (
	criticalPenalty = 20
	majorPenalty    = 10
	minorPenalty    = 5
)

// ComputeQualityScore starts at 100 and subtracts 20 per critical, 10 per
// major, and 5 per minor issue, clamped to [0,100]. Pure and
// order-independent.
func ComputeQualityScore(issues []Issue) int {
	score := 100
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			score -= criticalPenalty
		case SeverityMajor:
			score -= majorPenalty
		case SeverityMinor:
			score -= minorPenalty
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ClassifyQuality bands a score into its quality indicator. Boundary values
// belong to the higher tier.
func ClassifyQuality(score int) QualityIndicator {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 75:
		return QualityGood
	case score >= 50:
		return QualityNeedsImprovement
	default:
		return QualityPoor
	}
}

// countCritical returns the number of critical issues and their titles.
func countCritical(issues []Issue) (int, []string) {
	var titles []string
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			titles = append(titles, issue.Title)
		}
	}
	return len(titles), titles
}
