package prompts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists templates, versions, metrics, and test runs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) CreateTemplate(ctx context.Context, t *Template) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO prompts (id, name, description, category, template, variables, version, active_version, is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `, t.ID, t.Name, t.Description, t.Category, t.Template, pq.Array(ensureSliceNotNil(t.Variables)), t.Version, t.ActiveVersion, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*Template, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, name, description, category, template, variables, version, active_version, is_active, created_at, updated_at
        FROM prompts WHERE id=$1
    `, id)
	return scanTemplate(row)
}

func (s *PostgresStore) UpdateTemplate(ctx context.Context, t *Template) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE prompts
        SET name=$1, description=$2, category=$3, template=$4, variables=$5, version=$6, active_version=$7, is_active=$8, updated_at=$9
        WHERE id=$10
    `, t.Name, t.Description, t.Category, t.Template, pq.Array(ensureSliceNotNil(t.Variables)), t.Version, t.ActiveVersion, t.IsActive, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]*Template, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, description, category, template, variables, version, active_version, is_active, created_at, updated_at
        FROM prompts ORDER BY created_at ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateVersion(ctx context.Context, v *Version) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO prompt_versions (id, prompt_id, version, template, changelog, is_active, created_at, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, v.ID, v.PromptID, v.Version, v.Template, v.Changelog, v.IsActive, v.CreatedAt, v.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetVersions(ctx context.Context, promptID string) ([]*Version, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, prompt_id, version, template, changelog, is_active, created_at, created_by
        FROM prompt_versions WHERE prompt_id=$1 ORDER BY version DESC
    `, promptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Version, 0)
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.PromptID, &v.Version, &v.Template, &v.Changelog, &v.IsActive, &v.CreatedAt, &v.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetVersion(ctx context.Context, promptID string, version int) (*Version, error) {
	var v Version
	err := s.db.QueryRowContext(ctx, `
        SELECT id, prompt_id, version, template, changelog, is_active, created_at, created_by
        FROM prompt_versions WHERE prompt_id=$1 AND version=$2
    `, promptID, version).Scan(&v.ID, &v.PromptID, &v.Version, &v.Template, &v.Changelog, &v.IsActive, &v.CreatedAt, &v.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStore) GetActiveVersion(ctx context.Context, promptID string) (*Version, error) {
	var v Version
	err := s.db.QueryRowContext(ctx, `
        SELECT id, prompt_id, version, template, changelog, is_active, created_at, created_by
        FROM prompt_versions WHERE prompt_id=$1 AND is_active=true
    `, promptID).Scan(&v.ID, &v.PromptID, &v.Version, &v.Template, &v.Changelog, &v.IsActive, &v.CreatedAt, &v.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveVersion
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ActivateVersion flips the active flag and the parent pointer in one
// transaction so a crash cannot leave two active versions.
func (s *PostgresStore) ActivateVersion(ctx context.Context, promptID string, version int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE prompt_versions SET is_active=false WHERE prompt_id=$1`, promptID); err != nil {
		return fmt.Errorf("failed to deactivate versions: %w", err)
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE prompt_versions SET is_active=true WHERE prompt_id=$1 AND version=$2`, promptID, version)
	if err != nil {
		return fmt.Errorf("failed to activate version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx, `
        UPDATE prompts SET active_version=$1, template=(SELECT template FROM prompt_versions WHERE prompt_id=$2 AND version=$1)
        WHERE id=$2
    `, version, promptID); err != nil {
		return fmt.Errorf("failed to move active version pointer: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) DeleteVersionsFor(ctx context.Context, promptID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM prompt_versions WHERE prompt_id=$1`, promptID)
	return err
}

func (s *PostgresStore) GetMetrics(ctx context.Context, promptID string, version int) (*Metrics, error) {
	var m Metrics
	err := s.db.QueryRowContext(ctx, `
        SELECT prompt_id, version, average_response_time, success_rate, user_satisfaction_score, usage_count, error_rate, last_evaluated
        FROM prompt_metrics WHERE prompt_id=$1 AND version=$2
    `, promptID, version).Scan(&m.PromptID, &m.Version, &m.AverageResponseTime, &m.SuccessRate, &m.UserSatisfactionScore, &m.UsageCount, &m.ErrorRate, &m.LastEvaluated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) PutMetrics(ctx context.Context, m *Metrics) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO prompt_metrics (prompt_id, version, average_response_time, success_rate, user_satisfaction_score, usage_count, error_rate, last_evaluated)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (prompt_id, version)
        DO UPDATE SET
            average_response_time = EXCLUDED.average_response_time,
            success_rate = EXCLUDED.success_rate,
            user_satisfaction_score = EXCLUDED.user_satisfaction_score,
            usage_count = EXCLUDED.usage_count,
            error_rate = EXCLUDED.error_rate,
            last_evaluated = EXCLUDED.last_evaluated
    `, m.PromptID, m.Version, m.AverageResponseTime, m.SuccessRate, m.UserSatisfactionScore, m.UsageCount, m.ErrorRate, m.LastEvaluated)
	if err != nil {
		return fmt.Errorf("failed to upsert metrics: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveTestRun(ctx context.Context, run *TestRun) error {
	results, err := json.Marshal(run.Results)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO prompt_test_runs (id, prompt_id, version, results, overall_score, ran_at)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, run.ID, run.PromptID, run.Version, results, run.OverallScore, run.RanAt)
	if err != nil {
		return fmt.Errorf("failed to save test run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTestRuns(ctx context.Context, promptID string) ([]*TestRun, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, prompt_id, version, results, overall_score, ran_at
        FROM prompt_test_runs WHERE prompt_id=$1 ORDER BY ran_at DESC
    `, promptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*TestRun, 0)
	for rows.Next() {
		var run TestRun
		var results []byte
		if err := rows.Scan(&run.ID, &run.PromptID, &run.Version, &results, &run.OverallScore, &run.RanAt); err != nil {
			return nil, err
		}
		if len(results) > 0 {
			if err := json.Unmarshal(results, &run.Results); err != nil {
				return nil, err
			}
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Template, pq.Array(&t.Variables), &t.Version, &t.ActiveVersion, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ensureSliceNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
