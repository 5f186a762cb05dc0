package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/lib/pq"
)

// ErrNoAnalysis is returned when a project has no stored review.
var ErrNoAnalysis = errors.New("no review results found for project")

// AnalysisStore persists the latest review analysis per project. Writes
// overwrite: the gate only ever consults the most recent analysis.
type AnalysisStore interface {
	Put(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, projectID string) (*Analysis, error)
}

// InMemoryAnalysisStore is a threadsafe in-memory analysis store.
type InMemoryAnalysisStore struct {
	mu        sync.RWMutex
	byProject map[string]*Analysis
}

func NewInMemoryAnalysisStore() *InMemoryAnalysisStore {
	return &InMemoryAnalysisStore{byProject: make(map[string]*Analysis)}
}

func (s *InMemoryAnalysisStore) Put(ctx context.Context, a *Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byProject[a.ProjectID] = cloneAnalysis(a)
	return nil
}

func (s *InMemoryAnalysisStore) Get(ctx context.Context, projectID string) (*Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byProject[projectID]
	if !ok {
		return nil, ErrNoAnalysis
	}
	return cloneAnalysis(a), nil
}

// PostgresAnalysisStore persists analyses in the sow_reviews table, one row
// per project (upsert).
type PostgresAnalysisStore struct {
	db *sql.DB
}

func NewPostgresAnalysisStore(db *sql.DB) *PostgresAnalysisStore {
	return &PostgresAnalysisStore{db: db}
}

func (s *PostgresAnalysisStore) Put(ctx context.Context, a *Analysis) error {
	issues, err := json.Marshal(a.Issues)
	if err != nil {
		return err
	}
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO sow_reviews (project_id, overall_score, issues, recommendations, missing_elements, regulatory_issues, quality_indicator, review_agent_type, reviewed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (project_id)
        DO UPDATE SET
            overall_score = EXCLUDED.overall_score,
            issues = EXCLUDED.issues,
            recommendations = EXCLUDED.recommendations,
            missing_elements = EXCLUDED.missing_elements,
            regulatory_issues = EXCLUDED.regulatory_issues,
            quality_indicator = EXCLUDED.quality_indicator,
            review_agent_type = EXCLUDED.review_agent_type,
            reviewed_at = EXCLUDED.reviewed_at
    `, a.ProjectID, a.OverallScore, issues, recs, pq.Array(notNil(a.MissingElements)), pq.Array(notNil(a.RegulatoryIssues)), string(a.QualityIndicator), a.ReviewAgentType, a.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to store review analysis: %w", err)
	}
	return nil
}

func (s *PostgresAnalysisStore) Get(ctx context.Context, projectID string) (*Analysis, error) {
	var a Analysis
	var issues, recs []byte
	var indicator string
	err := s.db.QueryRowContext(ctx, `
        SELECT project_id, overall_score, issues, recommendations, missing_elements, regulatory_issues, quality_indicator, review_agent_type, reviewed_at
        FROM sow_reviews WHERE project_id=$1
    `, projectID).Scan(&a.ProjectID, &a.OverallScore, &issues, &recs, pq.Array(&a.MissingElements), pq.Array(&a.RegulatoryIssues), &indicator, &a.ReviewAgentType, &a.ReviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAnalysis
	}
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &a.Issues); err != nil {
			return nil, err
		}
	}
	if len(recs) > 0 {
		if err := json.Unmarshal(recs, &a.Recommendations); err != nil {
			return nil, err
		}
	}
	a.QualityIndicator = QualityIndicator(indicator)
	return &a, nil
}

func notNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
